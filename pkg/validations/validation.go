// All global custom validations in Codepad are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"Codepad/pkg/log"
	"context"
	"regexp"
	"sync"

	"github.com/asaskevich/govalidator"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var once sync.Once

// RegisterCustomValidations adds Codepad's tags into govalidator.TagMap, safe to call more than once.
func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	once.Do(func() {
		// This global validation doesn't allow whitespace in input.
		govalidator.TagMap["nospace"] = govalidator.Validator(func(str string) bool {
			return !govalidator.HasWhitespace(str)
		})
		// Room identifiers can't be blank.
		govalidator.TagMap["nospaceonly"] = govalidator.Validator(func(str string) bool {
			return !govalidator.HasWhitespaceOnly(str)
		})
		// Chat bubble color tag sent by the editor, #rgb or #rrggbb.
		govalidator.TagMap["hexcolor_custom"] = govalidator.Validator(func(str string) bool {
			return hexColor.MatchString(str)
		})
		logger.WithCtx(ctx).Info().Msg("Successfully registered global custom validations.")
	})
}
