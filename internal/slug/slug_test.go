package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Божественная литургия в Пекине", "bozhestvennaya-liturgiya-v-pekine"},
		{"Отец Александр", "otets-aleksandr"},
		{"Канонизация святых", "kanonizatsiya-svyatykh"},
		{"объявление", "obyavlenie"},
		{"Ёлка", "elka"},
		{"Святитель Алексий", "svyatitel-aleksii"},
		{"20150517beijing", "20150517beijing"},
		{"Hello, World!", "hello-world"},
		{"<h1>News - Archive</h1>", "news-archive"},
		{"中文标题", ""},
		{"   ", ""},
		{"", ""},
		{"--a--b--", "a-b"},
	}

	for i, tc := range cases {
		if got := Make(tc.in); got != tc.want {
			t.Errorf("case %d: Make(%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestMakeCapsLength(t *testing.T) {
	in := strings.Repeat("слово ", 30)
	got := Make(in)
	if len(got) > MaxLength {
		t.Fatalf("Make produced %d bytes, cap is %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("capped slug ends with hyphen: %q", got)
	}
	if got == "" {
		t.Fatal("expected non-empty slug")
	}
}

// Slugs feed canonical paths, so the fold must be stable run over run.
func TestMakeDeterministic(t *testing.T) {
	in := "Церковь сегодня — Приходы"
	first := Make(in)
	for i := 0; i < 5; i++ {
		if got := Make(in); got != first {
			t.Fatalf("Make(%q) unstable: %q vs %q", in, got, first)
		}
	}
}
