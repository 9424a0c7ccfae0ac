package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	ChildID   int64   `json:"childId" validate:"required,gt=0"`
	GameSlug  string  `json:"gameSlug" validate:"required,max=128"`
	Accuracy  float64 `json:"accuracy" validate:"gte=0,lte=100"`
	GameLevel int     `json:"gameLevel" validate:"required,min=1"`
}

type profile struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	AvatarColor string `json:"avatarColor" validate:"omitempty,hexcolor"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		value      interface{}
		wantFields []string
	}{
		{
			name:  "valid submission",
			value: submission{ChildID: 1, GameSlug: "letters", Accuracy: 80, GameLevel: 1},
		},
		{
			name:       "missing fields",
			value:      submission{Accuracy: 50},
			wantFields: []string{"childId", "gameSlug", "gameLevel"},
		},
		{
			name:       "accuracy out of range",
			value:      submission{ChildID: 1, GameSlug: "letters", Accuracy: 101, GameLevel: 1},
			wantFields: []string{"accuracy"},
		},
		{
			name:  "valid profile",
			value: profile{Name: "Mia", AvatarColor: "#4A90E2"},
		},
		{
			name:  "empty color allowed",
			value: profile{Name: "Mia"},
		},
		{
			name:       "bad color",
			value:      profile{Name: "Mia", AvatarColor: "blue"},
			wantFields: []string{"avatarColor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.value)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)
			var fields []string
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
				assert.NotEmpty(t, f.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Struct(profile{})
	require.Error(t, err)
	assert.Equal(t, "name: is required", err.Error())
}
