package form

import (
	"testing"

	"hsepanel/status"
)

func TestDecodeAnswers(t *testing.T) {
	for _, raw := range []string{"", "null"} {
		a, err := DecodeAnswers([]byte(raw))
		if err != nil || a == nil || len(a) != 0 {
			t.Fatalf("DecodeAnswers(%q) = %v, %v; want empty answers", raw, a, err)
		}
	}

	a, err := DecodeAnswers([]byte(`{"dadosGerais":{"razaoSocial":"Norte"},"certificacoes":"ISO 45001"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	section, ok := a.Section("dadosGerais")
	if !ok || section["razaoSocial"] != "Norte" {
		t.Fatalf("unexpected section %v", section)
	}
	if _, ok := a.Section("certificacoes"); ok {
		t.Fatal("expected scalar category not to be a section")
	}
	if _, ok := a.Section("meioAmbiente"); ok {
		t.Fatal("expected missing category")
	}

	if _, err := DecodeAnswers([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object answers")
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(Patch{}).Empty() {
		t.Fatal("expected zero patch to be empty")
	}
	if !(Patch{Event: &Event{Topic: OutboxTopicStatusChanged}}).Empty() {
		t.Fatal("expected event-only patch to be empty")
	}
	st := status.Approved
	if (Patch{Status: &st}).Empty() {
		t.Fatal("expected status patch to be non-empty")
	}
}

func TestFiltersNormalize(t *testing.T) {
	cases := []struct {
		in       Filters
		page     int
		pageSize int
	}{
		{Filters{}, 1, DefaultPageSize},
		{Filters{Page: 3, PageSize: 50}, 3, 50},
		{Filters{Page: -2, PageSize: MaxPageSize + 1}, 1, DefaultPageSize},
	}
	for _, tc := range cases {
		got := tc.in.Normalize()
		if got.Page != tc.page || got.PageSize != tc.pageSize {
			t.Errorf("Normalize(%+v) = %+v", tc.in, got)
		}
	}
}
