package notify

import (
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123@example.com", "abc***@example.com"},
		{"abcd@x.io", "abc***@x.io"},
		{"ab@x.io", "a***@x.io"},
		{"abc@x.io", "a***@x.io"},
		{"@x.io", "***@x.io"},
		{"username", "use***"},
		{"张三丰李四@qq.com", "张三丰***@qq.com"},
		{"", "***"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender_DefaultTemplate(t *testing.T) {
	data := BuildTemplateData("Leaflow 签到", []Entry{
		{Identifier: "abc123@example.com", Succeeded: true, Message: "check-in succeeded", Balance: "8.00 元"},
		{Identifier: "xyz789@example.com", Succeeded: false, Message: "login failed: login timeout", Balance: "unknown"},
	})

	got, err := Render("", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Leaflow 签到\n\n" +
		"✅ abc***@example.com\ncheck-in succeeded\nBalance: 8.00 元\n\n" +
		"❌ xyz***@example.com\nlogin failed: login timeout\nBalance: unknown\n\n" +
		"1/2 succeeded"
	if got != want {
		t.Errorf("rendered =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_NeverShowsRawIdentifier(t *testing.T) {
	data := BuildTemplateData("t", []Entry{{Identifier: "secretuser@example.com", Succeeded: true}})

	got, err := Render(`{{ range .Accounts }}{{ .Identifier }}{{ end }}`, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "secretuser") {
		t.Errorf("rendered %q leaks the identifier", got)
	}
}

func TestRender_SprigFunctions(t *testing.T) {
	data := BuildTemplateData("daily", []Entry{{Identifier: "a@b.c", Succeeded: true}})

	got, err := Render(`{{ .Title | upper }} {{ .Succeeded }}/{{ add .Succeeded .Failed }}`, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "DAILY 1/1" {
		t.Errorf("rendered = %q, want %q", got, "DAILY 1/1")
	}
}

func TestRender_InvalidTemplate(t *testing.T) {
	if _, err := Render(`{{ .Title`, TemplateData{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBuildTemplateData_Counts(t *testing.T) {
	data := BuildTemplateData("t", []Entry{
		{Identifier: "a@x", Succeeded: true},
		{Identifier: "b@x", Succeeded: false},
		{Identifier: "c@x", Succeeded: true},
	})
	if data.Succeeded != 2 || data.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 2/1", data.Succeeded, data.Failed)
	}
	if data.Accounts[1].Marker != "❌" {
		t.Errorf("marker = %q, want failure marker", data.Accounts[1].Marker)
	}
}
