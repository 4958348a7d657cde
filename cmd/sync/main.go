package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/zhangjialei/tradebook/internal/config"
	"github.com/zhangjialei/tradebook/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbFile string

// 对指定券商账户跑一轮同步并打印结果，用于排查问题或补数据
var rootCmd = &cobra.Command{
	Use:   "tradebook-sync <account-id>",
	Short: "对单个券商账户执行一次同步",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", dbFile, err)
		}

		reconcile := service.NewReconcileService(db, logger)
		sync := service.NewSyncService(db, &config.Config{}, reconcile, nil, logger)

		result, err := sync.SyncAccount(context.Background(), args[0])
		if result != nil {
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Fprintln(os.Stdout, string(out))
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbFile, "db", "d", "tradebook.db", "sqlite 数据库文件路径")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
