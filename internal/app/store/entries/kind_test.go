package entries_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/deruta/internal/app/store/entries"
	"github.com/dalemusser/deruta/internal/app/system/apperr"
)

func TestKindNormalize(t *testing.T) {
	tests := []struct {
		name    string
		kind    entries.Kind
		body    map[string]any
		want    map[string]string
		wantErr error
	}{
		{
			name: "item with only a name",
			kind: entries.Items,
			body: map[string]any{"name": "Lago"},
			want: map[string]string{
				"name": "Lago", "description": "", "category": "", "province": "",
				"visited": "", "website": "", "author": "",
			},
		},
		{
			name: "blank and null collapse",
			kind: entries.Items,
			body: map[string]any{"name": "  ", "description": nil, "author": "ana "},
			want: map[string]string{
				"name": "", "description": "", "category": "", "province": "",
				"visited": "", "website": "", "author": "ana ",
			},
		},
		{
			name:    "non-string field",
			kind:    entries.Items,
			body:    map[string]any{"name": 42.0},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "calendar requires day_label",
			kind:    entries.Calendar,
			body:    map[string]any{"description": "Cena"},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "calendar entry",
			kind: entries.Calendar,
			body: map[string]any{"day_label": "Lunes", "start_iso": "2026-07-01T10:00:00Z"},
			want: map[string]string{
				"day_label": "Lunes", "description": "", "day_label_end": "",
				"start_iso": "2026-07-01T10:00:00Z", "end_iso": "", "website": "", "author": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.kind.Normalize(tt.body)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d fields, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
