package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "LinkLinked",
			builder: func() string {
				return Topics{}.LinkLinked("hue:lamp:lamp1:1")
			},
			expected: "lumina/link/linked/hue:lamp:lamp1:1",
		},
		{
			name: "LinkUnlinked",
			builder: func() string {
				return Topics{}.LinkUnlinked("hue:lamp:lamp1:1")
			},
			expected: "lumina/link/unlinked/hue:lamp:lamp1:1",
		},
		{
			name: "LinkAdded",
			builder: func() string {
				return Topics{}.LinkAdded("hue:lamp:lamp1:1")
			},
			expected: "lumina/link/added/hue:lamp:lamp1:1",
		},
		{
			name: "LinkRemoved",
			builder: func() string {
				return Topics{}.LinkRemoved("hue:lamp:lamp1:1")
			},
			expected: "lumina/link/removed/hue:lamp:lamp1:1",
		},
		{
			name: "ThingStatus",
			builder: func() string {
				return Topics{}.ThingStatus("hue:lamp:lamp1")
			},
			expected: "lumina/thing/status/hue:lamp:lamp1",
		},
		{
			name: "ItemEvent",
			builder: func() string {
				return Topics{}.ItemEvent("added", "DemoItem")
			},
			expected: "lumina/item/added/DemoItem",
		},
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "lumina/system/status",
		},
		{
			name: "AllLinkEvents",
			builder: func() string {
				return Topics{}.AllLinkEvents()
			},
			expected: "lumina/link/#",
		},
		{
			name: "AllLinked",
			builder: func() string {
				return Topics{}.AllLinked()
			},
			expected: "lumina/link/linked/+",
		},
		{
			name: "AllUnlinked",
			builder: func() string {
				return Topics{}.AllUnlinked()
			},
			expected: "lumina/link/unlinked/+",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "lumina/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
