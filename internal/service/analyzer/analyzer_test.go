package analyzer

import (
	"context"
	"reflect"
	"testing"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

func TestNewKeywords(t *testing.T) {
	k := NewKeywords([]string{" Release ", "", "release", "Go", "  "})
	want := []string{"release", "go"}
	if got := k.Words(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(NewKeywords([]string{"release", "security", "go"}))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"case insensitive", "New RELEASE today", []string{"release"}},
		{"dictionary order and unique", "Security fix: go release, another release", []string{"release", "security", "go"}},
		{"no match", "nothing here", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatcherWithoutKeywords(t *testing.T) {
	m := NewMatcher(NewKeywords(nil))
	if got := m.Match("release"); got != nil {
		t.Fatalf("Match = %v, want nil", got)
	}
}

func TestTagPipelineKeepsIndexAlignment(t *testing.T) {
	p := NewTagPipeline(pkg.NewNop(), NewKeywords([]string{"alpha", "beta"}), 3)

	msgs := make([]model.MessageRecord, 0, 50)
	for i := 0; i < 50; i++ {
		text := "gamma"
		switch i % 3 {
		case 0:
			text = "Alpha post"
		case 1:
			text = "beta and alpha"
		}
		msgs = append(msgs, model.MessageRecord{ID: int64(i), Text: text})
	}

	tags := p.Tag(context.Background(), msgs)
	if len(tags) != len(msgs) {
		t.Fatalf("len(tags) = %d, want %d", len(tags), len(msgs))
	}
	for i, got := range tags {
		var want []string
		switch i % 3 {
		case 0:
			want = []string{"alpha"}
		case 1:
			want = []string{"alpha", "beta"}
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("tags[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestTagPipelineCanceled(t *testing.T) {
	p := NewTagPipeline(pkg.NewNop(), NewKeywords([]string{"alpha"}), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tags := p.Tag(ctx, []model.MessageRecord{{Text: "alpha"}, {Text: "alpha"}})
	if len(tags) != 2 {
		t.Fatalf("len(tags) = %d, want 2", len(tags))
	}
}
