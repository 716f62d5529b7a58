package validations

import (
	"Codepad/pkg/log"
	"context"
	"io"
	"testing"

	"github.com/asaskevich/govalidator"
	"github.com/stretchr/testify/assert"
)

func TestRegisterCustomValidations(t *testing.T) {
	RegisterCustomValidations(context.Background(), log.NewWithWriter("test", io.Discard))

	tests := []struct {
		tag   string
		input string
		want  bool
	}{
		{"nospace", "room-1", true},
		{"nospace", "room 1", false},
		{"nospaceonly", "room 1", true},
		{"nospaceonly", "   ", false},
		{"hexcolor_custom", "#fff", true},
		{"hexcolor_custom", "#1f2937", true},
		{"hexcolor_custom", "1f2937", false},
		{"hexcolor_custom", "#12345", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.input, func(t *testing.T) {
			validator, ok := govalidator.TagMap[tt.tag]
			assert.True(t, ok)
			assert.Equal(t, tt.want, validator(tt.input))
		})
	}
}
