package coach

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"ai-market-coach/apperrors"
	"ai-market-coach/learning"
)

// Request defaults
const (
	DefaultPeriod   = "1y"
	DefaultInterval = "1d"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-^=]{0,14}$`)

// Request is one analysis request from a client
type Request struct {
	Ticker    string `json:"ticker" validate:"required,ticker"`
	Period    string `json:"period" validate:"oneof=6mo 1y 2y 5y"`
	Interval  string `json:"interval" validate:"oneof=1d 1wk 1mo"`
	UserLevel string `json:"user_level" validate:"oneof=Beginner Intermediate Advanced"`
}

// Normalize trims fields, upper-cases the ticker, fills defaults and
// canonicalizes the level's casing. Unknown values are left for Validate.
func (r Request) Normalize() Request {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	r.Period = strings.ToLower(strings.TrimSpace(r.Period))
	r.Interval = strings.ToLower(strings.TrimSpace(r.Interval))
	r.UserLevel = strings.TrimSpace(r.UserLevel)

	if r.Period == "" {
		r.Period = DefaultPeriod
	}
	if r.Interval == "" {
		r.Interval = DefaultInterval
	}
	if level, err := learning.NormalizeLevel(r.UserLevel); err == nil {
		r.UserLevel = level
	}
	return r
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(fl.Field().String())
	})
	return v
}

var fieldReasons = map[string]string{
	"ticker":     "must be a ticker symbol such as AAPL or BRK-B",
	"period":     "must be one of 6mo, 1y, 2y, 5y",
	"interval":   "must be one of 1d, 1wk, 1mo",
	"user_level": "must be one of Beginner, Intermediate, Advanced",
}

// validate checks r against its struct tags and returns a ValidationError
// describing the first failing field
func validate(v *validator.Validate, r Request) error {
	err := v.Struct(r)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperrors.NewValidationError("request", err.Error())
	}

	fe := verrs[0]
	reason := fieldReasons[fe.Field()]
	if fe.Tag() == "required" {
		reason = "is required"
	}
	if fe.Field() == "ticker" && fe.Tag() == "required" {
		return apperrors.NewValidationError(fe.Field(), reason)
	}
	return apperrors.NewValidationErrorWithValue(fe.Field(), reason, fe.Value())
}
