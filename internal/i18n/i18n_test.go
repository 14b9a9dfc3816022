package i18n

import (
	"context"
	"testing"
)

func TestUntranslatedFallsBackToKey(t *testing.T) {
	ctx := WithLocale(context.Background(), "de")
	if got := T(ctx, "Never registered."); got != "Never registered." {
		t.Errorf("T = %q, want the key itself", got)
	}
}

func TestRegisteredTranslation(t *testing.T) {
	if err := Register("de", "Command canceled.", "Befehl abgebrochen."); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := WithLocale(context.Background(), "de")
	if got := T(ctx, "Command canceled."); got != "Befehl abgebrochen." {
		t.Errorf("T(de) = %q", got)
	}

	// Other locales keep the English source string.
	ctx = WithLocale(context.Background(), "fr")
	if got := T(ctx, "Command canceled."); got != "Command canceled." {
		t.Errorf("T(fr) = %q", got)
	}
}

func TestUnparsableLocaleFallsBackToEnglish(t *testing.T) {
	ctx := WithLocale(context.Background(), "???")
	if got := T(ctx, "Command canceled."); got != "Command canceled." {
		t.Errorf("T = %q", got)
	}
}

func TestTOutsideLocaleScope(t *testing.T) {
	if got := T(context.Background(), "Hello %s", "world"); got != "Hello world" {
		t.Errorf("T = %q", got)
	}
}

func TestRegisterRejectsBadLocale(t *testing.T) {
	if err := Register("not a locale", "x", "y"); err == nil {
		t.Error("expected an error for an unparsable locale")
	}
}
