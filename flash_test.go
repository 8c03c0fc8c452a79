package hxpage

import (
	"strings"
	"testing"
)

func TestFlashLevelConstants(t *testing.T) {
	// Ensure constants have expected values
	if FlashSuccess != "success" {
		t.Errorf("FlashSuccess = %q, want %q", FlashSuccess, "success")
	}
	if FlashError != "error" {
		t.Errorf("FlashError = %q, want %q", FlashError, "error")
	}
	if FlashWarning != "warning" {
		t.Errorf("FlashWarning = %q, want %q", FlashWarning, "warning")
	}
	if FlashInfo != "info" {
		t.Errorf("FlashInfo = %q, want %q", FlashInfo, "info")
	}
}

func renderFlashes(t *testing.T, flashes ...Flash) string {
	t.Helper()
	result, err := TestRender(FlashMessages(flashes...))
	if err != nil {
		t.Fatalf("render flashes: %v", err)
	}
	return result.HTML
}

func TestFlashMessagesEmpty(t *testing.T) {
	if got := renderFlashes(t); got != "" {
		t.Errorf("FlashMessages() = %q, want empty string", got)
	}
}

func TestFlashMessagesMultiple(t *testing.T) {
	result := renderFlashes(t,
		Flash{Level: FlashSuccess, Message: "First message"},
		Flash{Level: FlashError, Message: "Second message"},
		Flash{Level: FlashWarning, Message: "Third message"},
	)

	if strings.Count(result, `class="toast`) != 3 {
		t.Error("Should have three toast elements")
	}
	if !strings.Contains(result, `data-auto-dismiss="3000"`) {
		t.Error("Missing data-auto-dismiss")
	}
	for _, level := range []string{"toast-success", "toast-error", "toast-warning"} {
		if !strings.Contains(result, level) {
			t.Errorf("Missing %s", level)
		}
	}
}

func TestFlashMessagesHTMLEscaping(t *testing.T) {
	result := renderFlashes(t,
		Flash{Level: "<bad>", Message: "<script>alert('xss')</script>"},
	)

	if strings.Contains(result, "<script>") {
		t.Error("HTML should be escaped - found raw <script> tag")
	}
	if !strings.Contains(result, "&lt;script&gt;") {
		t.Error("HTML should be escaped - missing &lt;script&gt;")
	}
	if strings.Contains(result, `class="toast toast-<bad>"`) {
		t.Error("Level should be escaped")
	}
}

func TestFlashesAppendToToastContainer(t *testing.T) {
	u := NewPartialPageUpdate()
	u.AddWithMethod(SwapBeforeEnd, FlashMessages(Flash{Level: FlashInfo, Message: "Test"}), ToastContainerID)

	result, err := TestUpdate(u)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(result.HTML, `<div id="toasts" hx-swap-oob="beforeend">`) {
		t.Errorf("flashes should be wrapped in the toasts OOB container, got %q", result.HTML)
	}
	if !result.HasFlash(FlashInfo, "Test") {
		t.Errorf("flash not found in %q", result.HTML)
	}

	openCount := strings.Count(result.HTML, "<div")
	closeCount := strings.Count(result.HTML, "</div>")
	if openCount != closeCount {
		t.Errorf("Mismatched div tags: %d opens, %d closes", openCount, closeCount)
	}
}

func TestToastContainer(t *testing.T) {
	result, err := TestRender(ToastContainer())
	if err != nil {
		t.Fatal(err)
	}
	if result.HTML != `<div id="toasts" class="toast-container"></div>` {
		t.Errorf("ToastContainer() = %q", result.HTML)
	}
}
