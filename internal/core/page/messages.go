package page

import (
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/validation"
)

// User-facing strings.
const (
	MsgInvalidEmail        = "請輸入有效的 Email 格式"
	MsgPasswordTooShort    = "密碼必須至少 8 個字元"
	MsgPasswordComposition = "密碼必須包含英文字母和數字"
	MsgLoginFailed         = "登入失敗，請稍後再試"
	MsgProductsFailed      = "商品載入失敗，請稍後再試"
	MsgLoadingProducts     = "載入商品中..."

	LabelSubmit     = "登入"
	LabelSubmitting = "登入中..."
	LabelAdmin      = "管理員"
	LabelUser       = "一般用戶"
	LabelAdminLink  = "🛠️ 管理後台"
	LabelBack       = "← 返回"
)

func reasonMessage(r validation.Reason) string {
	switch r {
	case validation.InvalidEmailFormat:
		return MsgInvalidEmail
	case validation.PasswordTooShort:
		return MsgPasswordTooShort
	case validation.PasswordMissingLetterOrDigit:
		return MsgPasswordComposition
	}
	return ""
}

// RoleLabel is the badge text for a role.
func RoleLabel(r domain.Role) string {
	if r == domain.RoleAdmin {
		return LabelAdmin
	}
	return LabelUser
}
