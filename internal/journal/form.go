package journal

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/models"
)

// RequiredFieldsMessage is shown when a submission leaves out a required field.
const RequiredFieldsMessage = "Please fill in all required fields"

// TradeForm is a candidate trade as submitted by the CLI, the HTTP API or
// an import file. Enumerated fields are matched case-insensitively.
type TradeForm struct {
	ID          string            `json:"id,omitempty" validate:"omitempty,max=64"`
	Date        string            `json:"date" validate:"required,tradedate"`
	Pair        string            `json:"pair" validate:"required,pair"`
	Session     string            `json:"session" validate:"omitempty,session"`
	Type        string            `json:"type" validate:"required,side"`
	Setup       string            `json:"setup" validate:"omitempty,setup"`
	H4          string            `json:"h4" validate:"omitempty,h4"`
	M15         string            `json:"m15" validate:"omitempty,m15"`
	Entry       string            `json:"entry" validate:"omitempty,entry"`
	Result      string            `json:"result" validate:"required,result"`
	RiskReward  string            `json:"riskReward" validate:"max=64"`
	Notes       string            `json:"notes" validate:"max=10000"`
	Screenshots map[string]string `json:"screenshots,omitempty" validate:"omitempty,dive,keys,timeframe,endkeys,datauri"`
}

// Normalize trims surrounding whitespace from every text field.
func (f *TradeForm) Normalize() {
	for _, p := range []*string{
		&f.ID, &f.Date, &f.Pair, &f.Session, &f.Type, &f.Setup,
		&f.H4, &f.M15, &f.Entry, &f.Result, &f.RiskReward,
	} {
		*p = strings.TrimSpace(*p)
	}
	f.Notes = strings.TrimRight(f.Notes, " \t\r\n")
}

// record converts a validated form into a TradeRecord with the given id.
func (f TradeForm) record(id string) models.TradeRecord {
	pair, _ := models.ParsePair(f.Pair)
	side, _ := models.ParseSide(f.Type)
	result, _ := models.ParseResult(f.Result)

	rec := models.TradeRecord{
		ID:         id,
		Date:       f.Date,
		Pair:       pair,
		Type:       side,
		Result:     result,
		RiskReward: f.RiskReward,
		Notes:      f.Notes,
	}
	if f.Session != "" {
		rec.Session, _ = models.ParseSession(f.Session)
	}
	if f.Setup != "" {
		rec.Setup, _ = models.ParseSetup(f.Setup)
	}
	if f.H4 != "" {
		rec.H4, _ = models.ParseH4Bias(f.H4)
	}
	if f.M15 != "" {
		rec.M15, _ = models.ParseM15Zone(f.M15)
	}
	if f.Entry != "" {
		rec.Entry, _ = models.ParseEntryTrigger(f.Entry)
	}
	if len(f.Screenshots) > 0 {
		rec.Screenshots = make(map[models.Timeframe]string, len(f.Screenshots))
		for k, v := range f.Screenshots {
			tf, _ := models.ParseTimeframe(k)
			rec.Screenshots[tf] = v
		}
	}
	return rec
}

// FormFromRecord converts a stored record back into a form, as used by
// export and re-import.
func FormFromRecord(r models.TradeRecord) TradeForm {
	f := TradeForm{
		ID:         r.ID,
		Date:       r.Date,
		Pair:       string(r.Pair),
		Session:    string(r.Session),
		Type:       string(r.Type),
		Setup:      string(r.Setup),
		H4:         string(r.H4),
		M15:        string(r.M15),
		Entry:      string(r.Entry),
		Result:     string(r.Result),
		RiskReward: r.RiskReward,
		Notes:      r.Notes,
	}
	if len(r.Screenshots) > 0 {
		f.Screenshots = make(map[string]string, len(r.Screenshots))
		for k, v := range r.Screenshots {
			f.Screenshots[string(k)] = v
		}
	}
	return f
}

func enumValidator[T ~string](parse func(string) (T, error)) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := parse(fl.Field().String())
		return err == nil
	}
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("tradedate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("pair", enumValidator(models.ParsePair))
	v.RegisterValidation("session", enumValidator(models.ParseSession))
	v.RegisterValidation("side", enumValidator(models.ParseSide))
	v.RegisterValidation("setup", enumValidator(models.ParseSetup))
	v.RegisterValidation("h4", enumValidator(models.ParseH4Bias))
	v.RegisterValidation("m15", enumValidator(models.ParseM15Zone))
	v.RegisterValidation("entry", enumValidator(models.ParseEntryTrigger))
	v.RegisterValidation("result", enumValidator(models.ParseResult))
	v.RegisterValidation("timeframe", enumValidator(models.ParseTimeframe))

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// validateForm returns a *ValidationError listing every rejected field.
func validateForm(v *validator.Validate, form TradeForm) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, "validating trade")
	}

	out := &apperrors.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperrors.FieldError{
			Field:   fe.Field(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: formatFieldError(fe),
		})
	}
	sort.SliceStable(out.Fields, func(i, j int) bool { return out.Fields[i].Field < out.Fields[j].Field })
	return out
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "tradedate":
		return "must be a date in YYYY-MM-DD form"
	case "pair":
		return "must be one of " + quoted(models.AllPairs())
	case "session":
		return "must be one of " + quoted(models.AllSessions())
	case "side":
		return "must be one of " + quoted(models.AllSides())
	case "setup":
		return "must be one of " + quoted(models.AllSetups())
	case "h4":
		return "must be one of " + quoted(models.AllH4Biases())
	case "m15":
		return "must be one of " + quoted(models.AllM15Zones())
	case "entry":
		return "must be one of " + quoted(models.AllEntryTriggers())
	case "result":
		return "must be one of " + quoted(models.AllResults())
	case "timeframe":
		return "screenshot timeframe must be one of " + quoted(models.AllTimeframes())
	case "datauri":
		return "must be a base64 data URL"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func quoted[T ~string](all []T) string {
	parts := make([]string, len(all))
	for i, a := range all {
		parts[i] = fmt.Sprintf("%q", string(a))
	}
	return strings.Join(parts, ", ")
}

// MissingRequired reports whether err is a validation error caused by at
// least one empty required field.
func MissingRequired(err error) bool {
	var verr *apperrors.ValidationError
	if !apperrors.As(err, &verr) {
		return false
	}
	for _, f := range verr.Fields {
		if f.Message == "is required" {
			return true
		}
	}
	return false
}
