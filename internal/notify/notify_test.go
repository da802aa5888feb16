package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/logger"
	"github.com/edgard/cryptowatch/internal/store"
)

func TestReportingRecordsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, err := store.Open(ctx, config.StoreConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "s.json")}, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	var sent []string
	fail := true
	r := NewReporting(Func(func(_ context.Context, text string) error {
		if fail {
			return errors.New("chat not found")
		}
		sent = append(sent, text)
		return nil
	}), st, logger.Discard())

	err = r.Send(ctx, "hello")
	if !errors.Is(err, ErrSend) {
		t.Fatalf("Send() error = %v, want ErrSend", err)
	}
	if got := st.String(store.KeyLastError, ""); !strings.Contains(got, "chat not found") {
		t.Errorf("last_error = %q, want the send failure", got)
	}

	fail = false
	if err := r.Send(ctx, "again"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(sent) != 1 || sent[0] != "again" {
		t.Errorf("sent = %v, want [again]", sent)
	}
}

func TestReportingDoesNotDoubleWrap(t *testing.T) {
	t.Parallel()

	inner := Func(func(context.Context, string) error { return ErrSend })
	err := NewReporting(inner, nil, logger.Discard()).Send(context.Background(), "x")
	if err != ErrSend { //nolint:errorlint // identity is the point of this test
		t.Errorf("Send() error = %v, want bare ErrSend", err)
	}
}
