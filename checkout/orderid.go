package checkout

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// idMinter issues "ORD-<epochMillis>-<suffix>" ids. Millis never repeat
// within a process, so ids are unique here and only practically unique across processes.
type idMinter struct {
	mu       sync.Mutex
	lastMill int64
}

// orderIDs is shared by every Assembler in the process.
var orderIDs idMinter

func (m *idMinter) next(now time.Time) string {
	m.mu.Lock()
	ms := now.UnixMilli()
	if ms <= m.lastMill {
		ms = m.lastMill + 1
	}
	m.lastMill = ms
	m.mu.Unlock()

	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", ms, suffix)
}
