package extractor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homecare-labs/caremem-go/pkg/extractor"
)

func TestFactValidate(t *testing.T) {
	tests := []struct {
		name    string
		fact    extractor.Fact
		wantErr bool
	}{
		{
			name: "valid fact",
			fact: extractor.Fact{
				Category: "allergy",
				Priority: "critical",
				Content:  "Allergic to penicillin",
			},
		},
		{
			name: "valid fact with scalar metadata",
			fact: extractor.Fact{
				Category: "medication",
				Priority: "high",
				Content:  "Metformin 500mg",
				Metadata: map[string]interface{}{"dosage": "500mg", "times_daily": float64(2), "active": true},
			},
		},
		{
			name: "unknown category",
			fact: extractor.Fact{
				Category: "diagnosis",
				Priority: "high",
				Content:  "Type 2 diabetes",
			},
			wantErr: true,
		},
		{
			name: "unknown priority",
			fact: extractor.Fact{
				Category: "observation",
				Priority: "urgent",
				Content:  "Seemed tired",
			},
			wantErr: true,
		},
		{
			name: "empty content",
			fact: extractor.Fact{
				Category: "observation",
				Priority: "normal",
				Content:  "   ",
			},
			wantErr: true,
		},
		{
			name: "content too long",
			fact: extractor.Fact{
				Category: "observation",
				Priority: "normal",
				Content:  strings.Repeat("a", extractor.MaxContentLength+1),
			},
			wantErr: true,
		},
		{
			name: "content at the length bound",
			fact: extractor.Fact{
				Category: "observation",
				Priority: "normal",
				Content:  strings.Repeat("a", extractor.MaxContentLength),
			},
		},
		{
			name: "non-scalar metadata value",
			fact: extractor.Fact{
				Category: "observation",
				Priority: "normal",
				Content:  "note",
				Metadata: map[string]interface{}{"nested": map[string]interface{}{"a": 1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fact.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
