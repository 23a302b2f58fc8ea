package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dtroode/usuarios-server/internal/model"
)

const (
	maxBodyBytes = 1 << 20

	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{11}$`)
	phonePattern = regexp.MustCompile(`^[\d\s()\-+]+$`)
)

func nameRules() []validation.Rule {
	return []validation.Rule{validation.RuneLength(2, 100)}
}

func cpfRules() []validation.Rule {
	return []validation.Rule{validation.Match(cpfPattern).Error("must contain exactly 11 digits")}
}

func emailRules() []validation.Rule {
	return []validation.Rule{is.Email, validation.RuneLength(0, 100)}
}

func phoneRules() []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(0, 15),
		validation.Match(phonePattern).Error("must contain only digits, spaces, parentheses, dashes and plus signs"),
	}
}

func addressRules() []validation.Rule {
	return []validation.Rule{validation.RuneLength(0, 200)}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{validation.RuneLength(6, 255)}
}

type RegisterRequest struct {
	Name       string  `json:"nome"`
	NationalID string  `json:"cpf"`
	Email      string  `json:"email"`
	Phone      *string `json:"telefone"`
	Address    *string `json:"endereco"`
	Password   string  `json:"senha"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, append([]validation.Rule{validation.Required}, nameRules()...)...),
		validation.Field(&r.NationalID, append([]validation.Rule{validation.Required}, cpfRules()...)...),
		validation.Field(&r.Email, append([]validation.Rule{validation.Required}, emailRules()...)...),
		validation.Field(&r.Phone, phoneRules()...),
		validation.Field(&r.Address, addressRules()...),
		validation.Field(&r.Password, append([]validation.Rule{validation.Required}, passwordRules()...)...),
	)
}

func (r RegisterRequest) toModel() model.NewAccount {
	return model.NewAccount{
		Name:       r.Name,
		NationalID: r.NationalID,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		Password:   r.Password,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateRequest carries the fields a client wants to change. Absent fields
// stay untouched; the password travels separately from the patch.
type UpdateRequest struct {
	Name       *string `json:"nome"`
	NationalID *string `json:"cpf"`
	Email      *string `json:"email"`
	Phone      *string `json:"telefone"`
	Address    *string `json:"endereco"`
	Password   *string `json:"senha"`
}

func (r *UpdateRequest) normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}

func (r UpdateRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, append([]validation.Rule{validation.NilOrNotEmpty}, nameRules()...)...),
		validation.Field(&r.NationalID, append([]validation.Rule{validation.NilOrNotEmpty}, cpfRules()...)...),
		validation.Field(&r.Email, append([]validation.Rule{validation.NilOrNotEmpty}, emailRules()...)...),
		validation.Field(&r.Phone, phoneRules()...),
		validation.Field(&r.Address, addressRules()...),
		validation.Field(&r.Password, append([]validation.Rule{validation.NilOrNotEmpty}, passwordRules()...)...),
	)
	if err != nil {
		return err
	}

	if r.patch().Empty() && r.Password == nil {
		return validation.Errors{"body": errors.New("at least one field must be provided")}
	}
	return nil
}

func (r UpdateRequest) patch() model.AccountPatch {
	return model.AccountPatch{
		Name:       r.Name,
		NationalID: r.NationalID,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
	}
}

// ListQuery holds validated pagination parameters.
type ListQuery struct {
	Page  int
	Limit int
}

func parseListQuery(r *http.Request) (ListQuery, error) {
	q := ListQuery{Page: DefaultPage, Limit: DefaultPageSize}
	errs := validation.Errors{}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			errs["page"] = errors.New("must be an integer")
		} else {
			q.Page = page
			errs["page"] = validation.Validate(page, validation.By(intRange(1, 0)))
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			errs["limit"] = errors.New("must be an integer")
		} else {
			q.Limit = limit
			errs["limit"] = validation.Validate(limit, validation.By(intRange(1, MaxPageSize)))
		}
	}

	if err := errs.Filter(); err != nil {
		return ListQuery{}, toValidationError(err)
	}
	return q, nil
}

func parseIncludeDeleted(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("includeDeleted")
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ValidationError{Fields: []FieldError{{Field: "includeDeleted", Message: "must be a boolean"}}}
	}
	return v, nil
}

// intRange checks lo <= n and, when hi is positive, n <= hi. Zero is
// checked too, unlike ozzo's threshold rules which skip empty values.
func intRange(lo, hi int) validation.RuleFunc {
	return func(value interface{}) error {
		n, _ := value.(int)
		if n < lo {
			return fmt.Errorf("must be no less than %d", lo)
		}
		if hi > 0 && n > hi {
			return fmt.Errorf("must be no greater than %d", hi)
		}
		return nil
	}
}

type validatable interface {
	Validate() error
}

// normalizer is implemented by requests whose fields are cleaned up before
// validation, so the stored value is the one that was validated.
type normalizer interface {
	normalize()
}

// decode reads a JSON body into dst, normalizes and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrMalformedJSON)
		}
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := dst.Validate(); err != nil {
		return toValidationError(err)
	}
	return nil
}

// toValidationError flattens ozzo errors into field errors sorted by name.
func toValidationError(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make([]FieldError, 0, len(errs))
	for field, fieldErr := range errs {
		fields = append(fields, FieldError{Field: field, Message: fieldErr.Error()})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	return &ValidationError{Fields: fields}
}
