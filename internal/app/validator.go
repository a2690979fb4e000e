package app

import (
	"context"

	"github.com/hashweft/v1/pkg/interfaces/dht"
	"github.com/hashweft/v1/pkg/types"
)

// acceptAllValidator 默认应用验证策略
// 系统级校验仍然生效；仅应用级语义全量放行
type acceptAllValidator struct{}

// 静态断言：acceptAllValidator实现应用验证接口
var _ dht.AppValidator = (*acceptAllValidator)(nil)

// Validate 接受全部元素
func (v *acceptAllValidator) Validate(ctx context.Context, el *types.Element) (*dht.AppOutcome, error) {
	return &dht.AppOutcome{Accepted: true}, nil
}
