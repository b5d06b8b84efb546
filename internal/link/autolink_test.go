package link

import (
	"testing"

	"github.com/lumina-home/lumina-core/internal/item"
	"github.com/lumina-home/lumina-core/internal/thing"
)

type stubItems map[string]item.Item

func (s stubItems) Get(name string) (*item.Item, error) {
	if i, ok := s[name]; ok {
		return i.DeepCopy(), nil
	}
	return nil, item.ErrItemNotFound
}

func (s stubItems) GetAll() []item.Item {
	out := make([]item.Item, 0, len(s))
	for _, i := range s {
		out = append(out, i)
	}
	return out
}

func TestItemNameForChannel(t *testing.T) {
	if got := ItemNameForChannel("hue:lamp:lamp1:1"); got != "hue_lamp_lamp1_1" {
		t.Errorf("expected hue_lamp_lamp1_1, got %s", got)
	}
}

func TestNameStrategy(t *testing.T) {
	ch := thing.Channel{UID: "hue:lamp:lamp1:1", ID: "1", ItemType: item.TypeNumber}

	tests := []struct {
		name  string
		items stubItems
		want  string
	}{
		{
			name:  "matching name and type",
			items: stubItems{"hue_lamp_lamp1_1": {Name: "hue_lamp_lamp1_1", Type: item.TypeNumber}},
			want:  "hue_lamp_lamp1_1",
		},
		{
			name:  "no matching item",
			items: stubItems{"something_else": {Name: "something_else", Type: item.TypeNumber}},
			want:  "",
		},
		{
			name:  "type mismatch",
			items: stubItems{"hue_lamp_lamp1_1": {Name: "hue_lamp_lamp1_1", Type: item.TypeSwitch}},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (NameStrategy{}).ItemFor(ch, tt.items); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("untyped channel links regardless of item type", func(t *testing.T) {
		untyped := thing.Channel{UID: "hue:lamp:lamp1:1", ID: "1"}
		items := stubItems{"hue_lamp_lamp1_1": {Name: "hue_lamp_lamp1_1", Type: item.TypeSwitch}}
		if got := (NameStrategy{}).ItemFor(untyped, items); got != "hue_lamp_lamp1_1" {
			t.Errorf("expected match, got %q", got)
		}
	})
}
