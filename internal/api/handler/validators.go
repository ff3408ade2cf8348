package handler

import (
    "regexp"

    "github.com/gin-gonic/gin/binding"
    "github.com/go-playground/validator/v10"
)

// 邮政编码：6 位数字，首位非零
var pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func init() {
    if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
        _ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
            return pincodeRe.MatchString(fl.Field().String())
        })
    }
}
