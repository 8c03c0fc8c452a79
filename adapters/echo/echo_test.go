package hxpageecho

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/lib/crypt"
	"github.com/pthm/hxpage/lib/mapper"
)

func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func newRegistry(t *testing.T) (*hxpage.Registry, string) {
	t.Helper()
	mm := mapper.NewMuxMapper(nil)
	mm.Router().HandleFunc("/greet", func(w http.ResponseWriter, r *http.Request) {
		hxpage.NewAjaxResponse().AddMarkup(text("<p>hello</p>"), "greeting").Respond(w, r)
	}).Name("greet")

	reg := hxpage.NewRegistry(mapper.NewCryptoMapper(mm, crypt.NewStaticFactory(crypt.ModeSigned, []byte("echo-test"))))
	u, err := reg.URLFor(mapper.Route("greet"))
	if err != nil {
		t.Fatal(err)
	}
	return reg, u
}

func serve(e *echo.Echo, method, target string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMount(t *testing.T) {
	e := echo.New()
	reg, u := newRegistry(t)
	Mount(e, reg)

	rec := serve(e, http.MethodGet, u, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `<p id="greeting" hx-swap-oob="true">hello</p>`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMountWithPath(t *testing.T) {
	e := echo.New()
	reg, u := newRegistry(t)
	Mount(e, reg, WithPath("/_hx/*"))

	rec := serve(e, http.MethodGet, "/_hx/"+strings.TrimPrefix(u, "/"), true)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMountGroup(t *testing.T) {
	e := echo.New()
	g := e.Group("/app")
	reg, u := newRegistry(t)
	MountGroup(g, reg)

	// The crypto mapper only reads its query parameter, so the group
	// prefix does not affect decoding.
	rec := serve(e, http.MethodGet, "/app"+u, true)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCSRFProtection(t *testing.T) {
	e := echo.New()
	reg, u := newRegistry(t)
	Mount(e, reg)

	// POST without HX-Request header should be forbidden
	if rec := serve(e, http.MethodPost, u, false); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for POST without HX-Request, got %d", rec.Code)
	}

	// GET requests don't need HX-Request header
	if rec := serve(e, http.MethodGet, u, false); rec.Code == http.StatusForbidden {
		t.Error("GET request should not require HX-Request header")
	}
}

func TestForgedURLIsNotFound(t *testing.T) {
	e := echo.New()
	reg, _ := newRegistry(t)
	Mount(e, reg)

	if rec := serve(e, http.MethodGet, "/?x=forged.token", true); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRespondAndRender(t *testing.T) {
	e := echo.New()
	e.GET("/page", func(c echo.Context) error {
		return Render(c, text("<main>page</main>"))
	})
	e.POST("/ajax", func(c echo.Context) error {
		return Respond(c, hxpage.NewAjaxResponse().AddMarkup(text("<b>1</b>"), "n").Flash(hxpage.FlashInfo, "done"))
	})

	rec := serve(e, http.MethodGet, "/page", false)
	if rec.Body.String() != "<main>page</main>" || rec.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Errorf("Render() = %q (%s)", rec.Body.String(), rec.Header().Get("Content-Type"))
	}

	rec = serve(e, http.MethodPost, "/ajax", true)
	body := rec.Body.String()
	if !strings.Contains(body, `<b id="n" hx-swap-oob="true">1</b>`) || !strings.Contains(body, "toast-info") {
		t.Errorf("Respond() = %q", body)
	}
}
