package payload

import (
	"wenum/internal/fuzzdata"

	"github.com/google/uuid"
)

// UUIDSource generates a mix of time-based (v1) and random (v4) UUID
// payloads, kept close to the teacher's pkg/generator/uuid.go — there
// used to probe predictable time-based UUID primary keys, here exposed
// as a payload source for discovering UUID-keyed resources
// (`/objects/FUZZ`).
type UUIDSource struct {
	values []string
	idx    int
}

func NewUUIDSource(count int) *UUIDSource {
	values := make([]string, 0, count)
	for i := 0; i < count/2; i++ {
		if u, err := uuid.NewUUID(); err == nil {
			values = append(values, u.String())
		}
	}
	for i := 0; i < count-count/2; i++ {
		values = append(values, uuid.New().String())
	}
	return &UUIDSource{values: values}
}

func (u *UUIDSource) Next() (fuzzdata.FuzzWord, bool) {
	if u.idx >= len(u.values) {
		return fuzzdata.FuzzWord{}, false
	}
	v := u.values[u.idx]
	u.idx++
	return fuzzdata.FuzzWord{Content: v, Type: fuzzdata.WordType}, true
}

func (u *UUIDSource) Reset() { u.idx = 0 }

func (u *UUIDSource) Len() int { return len(u.values) }
