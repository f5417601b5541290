package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// promptLogger persists every oracle prompt and response under
// <run_dir>/oracle_log/<phase>.txt, one appended entry per call, so a
// reviewer can audit exactly what the oracle was asked and what it
// returned for a given candidate (§6.4 oracle_log).
type promptLogger struct{ dir string }

func (p *promptLogger) Before(ctx context.Context, phase, prompt string, input any) {
	if phase == "" {
		phase = "unknown"
	}
	_ = os.MkdirAll(p.dir, 0o755)
	path := filepath.Join(p.dir, sanitizePhase(phase)+".txt")

	var buf bytes.Buffer
	buf.WriteString("==== ")
	buf.WriteString(time.Now().UTC().Format(time.RFC3339))
	buf.WriteString(" ====\n")
	buf.WriteString(prompt)
	buf.WriteString("\n\n[INPUT JSON]\n")
	jb, _ := json.MarshalIndent(input, "", "  ")
	buf.Write(jb)
	buf.WriteString("\n\n")

	appendFile(path, buf.Bytes())
}

func (p *promptLogger) After(ctx context.Context, phase string, raw json.RawMessage, err error) {
	if phase == "" {
		phase = "unknown"
	}
	path := filepath.Join(p.dir, sanitizePhase(phase)+".txt")

	var buf bytes.Buffer
	buf.WriteString("[RESPONSE]\n")
	if err != nil {
		buf.WriteString("ERROR: " + err.Error() + "\n\n")
	} else {
		buf.Write(raw)
		buf.WriteString("\n\n")
	}

	appendFile(path, buf.Bytes())
}

func appendFile(path string, data []byte) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(data)
}

// sanitizePhase keeps phase strings ("verify:<candidate_id>") filesystem
// safe without losing their distinguishing suffix.
func sanitizePhase(phase string) string {
	out := make([]byte, 0, len(phase))
	for i := 0; i < len(phase); i++ {
		c := phase[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
