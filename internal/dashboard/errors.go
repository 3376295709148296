package dashboard

import (
	"errors"

	"github.com/wonny/overseas-dashboard/internal/external/kis"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/pkg/config"
)

// Kind classifies a render failure for operators
type Kind string

const (
	KindConfig    Kind = "config"    // 필수 설정 누락, 네트워크 호출 전 중단
	KindTransport Kind = "transport" // 네트워크/HTTP 실패
	KindAuth      Kind = "auth"      // 토큰 발급 실패
	KindBusiness  Kind = "business"  // rt_cd != "0"
	KindData      Kind = "data"      // 숫자 필드 누락/오류
	KindUnknown   Kind = "unknown"
)

// Classify maps an error from the pipeline to its Kind
func Classify(err error) Kind {
	var (
		cfgErr   *config.ConfigError
		authErr  *kis.AuthError
		tErr     *kis.TransportError
		bizErr   *portfolio.BusinessError
		parseErr *portfolio.ParseError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfig
	case errors.As(err, &authErr), errors.Is(err, kis.ErrNoAccessToken):
		return KindAuth
	case errors.As(err, &tErr):
		return KindTransport
	case errors.As(err, &bizErr):
		return KindBusiness
	case errors.As(err, &parseErr):
		return KindData
	}
	return KindUnknown
}
