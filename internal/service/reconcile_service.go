package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/repo"
	"github.com/zhangjialei/tradebook/pkg/broker"
	"github.com/zhangjialei/tradebook/pkg/pnl"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvariantViolation 同一 (账户, 标的, 方向) 出现多条未平仓持仓，说明数据已被破坏，
// 宁可大声失败也不随机挑一条继续算
var ErrInvariantViolation = errors.New("multiple open positions for one reconciliation key")

// 数量对冲后的浮点残余小于该值视为零
const quantityEpsilon = 1e-9

// ReconcileService 成交对账引擎。
// 按时间顺序逐笔处理成交：反向成交先对冲现有持仓并落地平仓切片，
// 余量翻转开新仓；同向成交加权摊平。每笔成交的全部写入在一个事务内完成。
//
// 引擎本身不做并发控制，要求调用方对同一券商账户串行调用（见 SyncService 的按键互斥）。
type ReconcileService struct {
	logger *zap.Logger

	*orz.Service
	positionRepo *repo.PositionRepo
	tradeRepo    *repo.TradeRepo
	fillRepo     *repo.FillRepo
}

// NewReconcileService 创建对账引擎
func NewReconcileService(db *gorm.DB, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		logger:       logger,
		Service:      orz.NewService(db),
		positionRepo: repo.NewPositionRepo(db),
		tradeRepo:    repo.NewTradeRepo(db),
		fillRepo:     repo.NewFillRepo(db),
	}
}

// ApplyFill 将一笔归一化成交入账。
// 重复订单号直接跳过并返回 applied=false（幂等前置条件，在读取任何持仓之前判定）。
// 返回错误时本笔成交未产生任何写入，调用方应中止本轮剩余成交。
func (s *ReconcileService) ApplyFill(ctx context.Context, account *models.BrokerAccount, fill broker.Fill) (applied bool, err error) {
	exists, err := s.fillRepo.ExistsByOrderID(ctx, account.ID, fill.OrderID)
	if err != nil {
		return false, fmt.Errorf("failed to check processed order id: %w", err)
	}
	if exists {
		return false, nil
	}

	err = s.Transaction(ctx, func(ctx context.Context) error {
		return s.applyFill(ctx, account, fill)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *ReconcileService) applyFill(ctx context.Context, account *models.BrokerAccount, fill broker.Fill) error {
	sameDirection := models.SideDirection(fill.Side)
	oppositeDirection := models.OppositeDirection(sameDirection)
	remaining := fill.Quantity

	// 先对冲反向持仓：卖单冲多头，买单冲空头。
	// 不变量下最多循环一次，循环结构只是防御上游破坏不变量的情况。
	for remaining > quantityEpsilon {
		opposites, err := s.positionRepo.FindOpenByKey(ctx, account.ID, fill.Symbol, oppositeDirection)
		if err != nil {
			return fmt.Errorf("failed to load opposite position: %w", err)
		}
		if len(opposites) > 1 {
			return fmt.Errorf("%w: account=%s symbol=%s direction=%s count=%d",
				ErrInvariantViolation, account.ID, fill.Symbol, oppositeDirection, len(opposites))
		}
		if len(opposites) == 0 {
			break
		}

		opposite := opposites[0]
		// 平仓切片按决策时刻的快照计价，后续缩减不影响已生成的切片
		snapshot := opposite.Snapshot()
		closeQty := math.Min(snapshot.Quantity, remaining)

		realized := pnl.ComputeRealized(oppositeDirection, snapshot.AvgEntryPrice, fill.Price, closeQty)
		slice := models.Trade{
			ID:           ulid.Make().String(),
			UserID:       account.UserID,
			AccountID:    account.ID,
			Broker:       account.Broker,
			Symbol:       fill.Symbol,
			Direction:    oppositeDirection,
			Quantity:     closeQty,
			EntryPrice:   snapshot.AvgEntryPrice,
			ExitPrice:    fill.Price,
			EntryAmount:  closeQty * snapshot.AvgEntryPrice,
			PnlAmount:    realized.Amount,
			PnlPercent:   realized.Percent,
			Segment:      snapshot.Segment,
			EntryOrderID: opposite.LastOrderID,
			ExitOrderID:  fill.OrderID,
			OpenedAt:     snapshot.OpenedAt,
			ClosedAt:     fill.ExecutedAt,
		}
		if err := s.tradeRepo.Create(ctx, &slice); err != nil {
			return fmt.Errorf("failed to record closed slice: %w", err)
		}

		if err := s.shrinkPosition(ctx, &opposite, closeQty, fill.OrderID); err != nil {
			return err
		}

		s.logger.Info("closed slice recorded",
			zap.String("account_id", account.ID),
			zap.String("symbol", fill.Symbol),
			zap.String("direction", oppositeDirection),
			zap.Float64("quantity", closeQty),
			zap.Float64("pnl_amount", realized.Amount))

		remaining -= closeQty
	}

	// 余量开新仓或摊平：对冲完还有剩余说明翻转或纯开仓
	if remaining > quantityEpsilon {
		if err := s.openOrAverageIn(ctx, account, fill, sameDirection, remaining); err != nil {
			return err
		}
	}

	ledger := models.Fill{
		ID:         ulid.Make().String(),
		UserID:     account.UserID,
		AccountID:  account.ID,
		Broker:     account.Broker,
		Symbol:     fill.Symbol,
		Side:       fill.Side,
		Quantity:   fill.Quantity,
		Price:      fill.Price,
		Segment:    fill.Segment,
		OrderID:    fill.OrderID,
		ExecutedAt: fill.ExecutedAt,
		Raw:        []byte(fill.Raw),
	}
	if err := s.fillRepo.Create(ctx, &ledger); err != nil {
		return fmt.Errorf("failed to record fill: %w", err)
	}
	return nil
}

// shrinkPosition 按平仓数量缩减持仓，等比缩减开仓金额以保持均价不变，减到零即删除
func (s *ReconcileService) shrinkPosition(ctx context.Context, position *models.Position, closeQty float64, orderID string) error {
	remaining := position.Quantity - closeQty
	if remaining <= quantityEpsilon {
		if err := s.positionRepo.DeleteById(ctx, position.ID); err != nil {
			return fmt.Errorf("failed to delete consumed position: %w", err)
		}
		return nil
	}

	position.Quantity = remaining
	position.EntryAmount -= closeQty * position.AvgEntryPrice
	position.LastOrderID = orderID
	if err := s.positionRepo.Save(ctx, position); err != nil {
		return fmt.Errorf("failed to shrink position: %w", err)
	}
	return nil
}

// openOrAverageIn 同向已有持仓则加权摊平，否则以本笔成交价开新仓
func (s *ReconcileService) openOrAverageIn(ctx context.Context, account *models.BrokerAccount, fill broker.Fill, direction string, quantity float64) error {
	positions, err := s.positionRepo.FindOpenByKey(ctx, account.ID, fill.Symbol, direction)
	if err != nil {
		return fmt.Errorf("failed to load same-direction position: %w", err)
	}
	if len(positions) > 1 {
		return fmt.Errorf("%w: account=%s symbol=%s direction=%s count=%d",
			ErrInvariantViolation, account.ID, fill.Symbol, direction, len(positions))
	}

	if len(positions) == 1 {
		position := positions[0]
		position.EntryAmount += quantity * fill.Price
		position.Quantity += quantity
		position.AvgEntryPrice = position.EntryAmount / position.Quantity
		position.LastOrderID = fill.OrderID
		if err := s.positionRepo.Save(ctx, &position); err != nil {
			return fmt.Errorf("failed to average in: %w", err)
		}
		return nil
	}

	position := models.Position{
		ID:            ulid.Make().String(),
		UserID:        account.UserID,
		AccountID:     account.ID,
		Broker:        account.Broker,
		Symbol:        fill.Symbol,
		Direction:     direction,
		Quantity:      quantity,
		AvgEntryPrice: fill.Price,
		EntryAmount:   quantity * fill.Price,
		Segment:       fill.Segment,
		LastOrderID:   fill.OrderID,
		OpenedAt:      fill.ExecutedAt,
	}
	if err := s.positionRepo.Create(ctx, &position); err != nil {
		return fmt.Errorf("failed to open position: %w", err)
	}
	return nil
}
