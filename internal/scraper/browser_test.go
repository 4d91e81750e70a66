package scraper

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNewBrowser_StartFailureIsReturned(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	missing := filepath.Join(t.TempDir(), "no-such-chrome")
	b, err := NewBrowser(ctx, BrowserConfig{ExecPath: missing})
	if err == nil {
		_ = b.Close()
		t.Fatal("expected an error when the browser binary does not exist")
	}
	if b != nil {
		t.Errorf("expected nil browser on start failure")
	}
}
