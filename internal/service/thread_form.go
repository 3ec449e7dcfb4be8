package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// createThreadForm 发帖校验规则
type createThreadForm struct {
	Subject string  `json:"subject" validate:"required,min=10,max=255"`
	Body    string  `json:"body" validate:"required"`
	Version *string `json:"version" validate:"omitnil,forum_version"`
	Tags    []uint  `json:"tags" validate:"max=3"`
}

// updateThreadForm 与发帖规则相同，但所有字段都可缺省
type updateThreadForm struct {
	Subject *string `json:"subject" validate:"omitnil,min=10,max=255"`
	Body    *string `json:"body" validate:"omitnil,min=1"`
	Version *string `json:"version" validate:"omitnil,forum_version"`
	Tags    *[]uint `json:"tags" validate:"omitnil,max=3"`
}

// ThreadForm 帖子表单校验，版本号列表随配置热更新
type ThreadForm struct {
	validate *validator.Validate
}

func NewThreadForm(settings *ForumSettings) *ThreadForm {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// 空字符串表示清除版本号
	_ = v.RegisterValidation("forum_version", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || settings.HasVersion(value)
	})
	return &ThreadForm{validate: v}
}

func (f *ThreadForm) ValidateCreate(in CreateThreadInput) *ValidationError {
	return f.collect(createThreadForm{
		Subject: strings.TrimSpace(in.Subject),
		Body:    strings.TrimSpace(in.Body),
		Version: in.Version,
		Tags:    in.TagIDs,
	})
}

func (f *ThreadForm) ValidatePatch(p ThreadPatch) *ValidationError {
	form := updateThreadForm{
		Version: p.Version,
		Tags:    p.TagIDs,
	}
	if p.Subject != nil {
		s := strings.TrimSpace(*p.Subject)
		form.Subject = &s
	}
	if p.Body != nil {
		b := strings.TrimSpace(*p.Body)
		form.Body = &b
	}
	return f.collect(form)
}

func (f *ThreadForm) collect(form interface{}) *ValidationError {
	verr := newValidationError()

	err := f.validate.Struct(form)
	if err == nil {
		return verr
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("form", err.Error())
		return verr
	}
	for _, fe := range errs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return fmt.Sprintf("The %s field is required.", field)
			}
			return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s must have at least %s items.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s may not have more than %s items.", field, fe.Param())
	case "forum_version":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}
