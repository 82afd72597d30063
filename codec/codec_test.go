package codec

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"google.golang.org/protobuf/proto"

	"storefront-order-engine/models"
	"storefront-order-engine/money"
)

func testKey(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, KeySize)
}

func sampleOrder() models.Order {
	return models.Order{
		ID:       "ORD-1700000000000-ABCDEF12",
		PlacedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Items:    []models.LineItem{{ProductID: "P1", Name: "Kettle", UnitPrice: money.MustParse("50"), Quantity: 2}},
		Subtotal: money.MustParse("100"),
		Total:    money.MustParse("103"),
		Customer: models.Customer{FirstName: "Asha", Email: "asha@example.com"},
		Status:   models.OrderStatusPlaced,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewEncryptionCodec(testKey(1))
	require.NoError(t, err)

	plain, err := converter.GetDefaultDataConverter().ToPayload(sampleOrder())
	require.NoError(t, err)

	encoded, err := c.Encode([]*commonpb.Payload{plain})
	require.NoError(t, err)
	require.Len(t, encoded, 1)

	assert.Equal(t, MetadataEncodingEncrypted, string(encoded[0].Metadata[converter.MetadataEncoding]))
	assert.Equal(t, KeyID(testKey(1)), string(encoded[0].Metadata[MetadataEncryptionKeyID]))
	assert.NotContains(t, string(encoded[0].Data), "asha@example.com")

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.True(t, proto.Equal(plain, decoded[0]))
}

func TestCodec_NoncesDiffer(t *testing.T) {
	c, err := NewEncryptionCodec(testKey(1))
	require.NoError(t, err)

	p := &commonpb.Payload{Data: []byte("same")}
	a, err := c.Encode([]*commonpb.Payload{p})
	require.NoError(t, err)
	b, err := c.Encode([]*commonpb.Payload{p})
	require.NoError(t, err)

	assert.NotEqual(t, a[0].Data, b[0].Data)
}

func TestCodec_DecodePassesThroughPlainPayloads(t *testing.T) {
	c, err := NewEncryptionCodec(testKey(1))
	require.NoError(t, err)

	plain := &commonpb.Payload{
		Metadata: map[string][]byte{converter.MetadataEncoding: []byte("json/plain")},
		Data:     []byte(`"hello"`),
	}
	decoded, err := c.Decode([]*commonpb.Payload{plain})
	require.NoError(t, err)
	assert.Same(t, plain, decoded[0])
}

func TestCodec_DecodeFailures(t *testing.T) {
	c, err := NewEncryptionCodec(testKey(1))
	require.NoError(t, err)
	other, err := NewEncryptionCodec(testKey(2))
	require.NoError(t, err)

	encoded, err := c.Encode([]*commonpb.Payload{{Data: []byte("secret")}})
	require.NoError(t, err)

	t.Run("Wrong key", func(t *testing.T) {
		_, err := other.Decode(encoded)
		assert.ErrorIs(t, err, ErrKeyMismatch)
	})

	t.Run("Tampered ciphertext", func(t *testing.T) {
		tampered := proto.Clone(encoded[0]).(*commonpb.Payload)
		tampered.Data[len(tampered.Data)-1] ^= 0xff
		_, err := c.Decode([]*commonpb.Payload{tampered})
		assert.ErrorContains(t, err, "failed to decrypt payload")
	})

	t.Run("Truncated", func(t *testing.T) {
		short := proto.Clone(encoded[0]).(*commonpb.Payload)
		short.Data = short.Data[:4]
		_, err := c.Decode([]*commonpb.Payload{short})
		assert.ErrorIs(t, err, ErrShortCiphertext)
	})
}

func TestEncryptionDataConverter(t *testing.T) {
	dc, err := NewEncryptionDataConverter(testKey(7))
	require.NoError(t, err)

	order := sampleOrder()
	payload, err := dc.ToPayload(order)
	require.NoError(t, err)
	assert.Equal(t, MetadataEncodingEncrypted, string(payload.Metadata[converter.MetadataEncoding]))

	var got models.Order
	require.NoError(t, dc.FromPayload(payload, &got))
	assert.Equal(t, order.ID, got.ID)
	assert.True(t, order.PlacedAt.Equal(got.PlacedAt))
	assert.True(t, order.Total.Equal(got.Total))
	assert.Equal(t, order.Customer, got.Customer)
}

func TestNewEncryptionCodec_InvalidKey(t *testing.T) {
	_, err := NewEncryptionCodec([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewEncryptionDataConverter(nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := testKey(9)

	got, err := ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = ParseKey("zz")
	assert.Error(t, err)

	_, err = ParseKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, KeySize)
	assert.NotEqual(t, a, b)
}
