package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "S101",
			wantMsg: "Config file not found",
			wantCat: CategoryConfig,
		},
		{
			name:    "storage error",
			code:    "S202",
			wantMsg: "Storage backend unavailable",
			wantCat: CategoryStorage,
		},
		{
			name:    "cli error",
			code:    "S302",
			wantMsg: "Walk failed",
			wantCat: CategoryCLI,
		},
		{
			name:    "unknown error code",
			code:    "S999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New("S203").WithSubject("cart").Wrap(fs.ErrNotExist)
	want := "S203: Key not found (cart): file does not exist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.FormatCompact() != want {
		t.Errorf("FormatCompact() = %q", err.FormatCompact())
	}

	plain := Newf(CategoryCLI, "bad flag %q", "--x")
	if plain.Error() != `bad flag "--x"` {
		t.Errorf("Error() = %q", plain.Error())
	}
}

func TestErrorsIsAndAs(t *testing.T) {
	cause := fs.ErrPermission
	err := fmt.Errorf("open: %w", New("S202").Wrap(cause))

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not reach the wrapped cause")
	}
	if !stderrors.Is(err, New("S202")) {
		t.Error("errors.Is did not match by code")
	}
	if stderrors.Is(err, New("S201")) {
		t.Error("errors.Is matched a different code")
	}
	if Code(err) != "S202" {
		t.Errorf("Code = %q", Code(err))
	}
	if Code(cause) != "" {
		t.Errorf("Code of a plain error = %q", Code(cause))
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "S204") != nil {
		t.Error("FromError(nil) should be nil")
	}

	wrapped := FromError(fs.ErrClosed, "S204")
	if wrapped.Code != "S204" || wrapped.Wrapped != fs.ErrClosed {
		t.Errorf("FromError = %+v", wrapped)
	}

	orig := New("S101")
	if FromError(fmt.Errorf("ctx: %w", orig), "S204") != orig {
		t.Error("FromError should return an existing SugarError")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("S201").
		WithSubject("sugar.json").
		WithDetail(`backend "s3" needs a bucket`).
		WithSuggestion(`Set "storage.bucket"`).
		Wrap(stderrors.New("missing bucket"))

	out := err.Format()
	for _, want := range []string{
		"ERROR S201: Storage backend misconfigured",
		"  sugar.json",
		`  backend "s3" needs a bucket`,
		"Cause: missing bucket",
		`Hint: Set "storage.bucket"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors were not disabled")
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("S402").WithSubject("cart").Wrap(stderrors.New("bad field"))

	var got map[string]string
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("FormatJSON is not valid JSON: %v", e)
	}
	if got["code"] != "S402" || got["category"] != "store" || got["subject"] != "cart" || got["cause"] != "bad field" {
		t.Errorf("FormatJSON = %v", got)
	}
	if _, ok := got["suggestion"]; ok {
		t.Error("empty suggestion was encoded")
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	PrintError(&b, New("S305").WithSubject("nav.home"))
	if !strings.Contains(b.String(), "ERROR S305: Message not found") {
		t.Errorf("PrintError = %q", b.String())
	}

	b.Reset()
	PrintError(&b, stderrors.New("plain"))
	if !strings.Contains(b.String(), "ERROR: plain") {
		t.Errorf("PrintError = %q", b.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 || codes[0] != "S101" {
		t.Errorf("codes = %v", codes)
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
	}

	Register("S499", ErrorTemplate{Category: CategoryStore, Message: "test"})
	defer delete(registry, "S499")
	if New("S499").Message != "test" {
		t.Error("registered template not used")
	}
}
