package hxpage

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Flash levels for toast notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// ToastContainerID is the markup id flash messages are appended to.
const ToastContainerID = "toasts"

// Flash represents a one-time notification message.
//
// AjaxResponse adds flashes to the update as a single component appended
// (SwapBeforeEnd) to the #toasts container. The client dismisses toasts
// after the delay given in data-auto-dismiss.
//
//	hxpage.NewAjaxResponse().Add(counter).Flash(hxpage.FlashSuccess, "Saved!")
type Flash struct {
	Level   string // success, error, warning, info
	Message string
}

// FlashMessages renders flashes as toast elements. data-auto-dismiss is
// the delay in milliseconds before the client removes a toast.
func FlashMessages(flashes ...Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, f := range flashes {
			_, err := fmt.Fprintf(w, `<div class="toast toast-%s" data-auto-dismiss="3000">%s</div>`,
				templ.EscapeString(f.Level), templ.EscapeString(f.Message))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ToastContainer renders the element flashes are appended to. Place it
// once in the page layout:
//
//	@hxpage.ToastContainer()
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="`+ToastContainerID+`" class="toast-container"></div>`)
		return err
	})
}
