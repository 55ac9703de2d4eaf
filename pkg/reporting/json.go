package reporting

import (
	"encoding/json"
	"fmt"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

// RenderJSON produces the machine-readable report: the session itself,
// serialized with its stable field names.
func RenderJSON(session *domain.Session) ([]byte, error) {
	out, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return out, nil
}
