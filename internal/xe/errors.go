package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams    = orz.NewError(10400, "参数无效")
	ErrInvalidToken     = orz.NewError(10403, "令牌无效")
	ErrPermissionDenied = orz.NewError(10401, "您没有权限查看/修改/删除此数据")

	ErrBrokerNotSupported = orz.NewError(10010, "尚未支持该券商")
	ErrAccountDisabled    = orz.NewError(10011, "该券商账户已停用同步")
	ErrAccountNotFound    = orz.NewError(10012, "券商账户不存在")
	ErrSyncInProgress     = orz.NewError(10013, "该账户正在同步中，请稍后再试")
)
