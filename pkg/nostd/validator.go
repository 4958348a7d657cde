package nostd

import (
	"net/http"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/labstack/echo/v4"
)

// CustomValidator echo 请求参数校验器，校验失败信息翻译为中文
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

// TransInit 初始化中文翻译器
func (cv *CustomValidator) TransInit() error {
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, _ := uni.GetTranslator("zh")
	cv.trans = trans
	return zhTranslations.RegisterDefaultTranslations(cv.Validator, trans)
}

// Validate 实现 echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.Validator.Struct(i); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && cv.trans != nil {
			for _, e := range errs {
				return echo.NewHTTPError(http.StatusBadRequest, e.Translate(cv.trans))
			}
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
