package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amamiya-dev/file-bed/config"
	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/models"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令
// 不带子命令时对配置的数据库执行自动DDL后退出
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Apply the schema to the configured database, or move data between databases.`,
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		provider, err := database.Connect(config.Get())
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		defer provider.Close()
		log.Printf("Schema migrated successfully (%s)", provider.Name())
	},
}

// migrateRunCmd 跨数据库数据迁移
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run database migration",
	Long: `Run data migration from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  file-bed migrate run --from-sqlite ./data/file-bed.db --to-postgres "host=localhost user=postgres password=secret dbname=filebed port=5432"

  # Stop on conflict
  file-bed migrate run --from-sqlite ./data/file-bed.db --to-postgres "..." --on-conflict=error`,
	Run: func(cmd *cobra.Command, args []string) {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if err := runMigration(fromSQLite, toPostgres, skipConfirm, batchSize, onConflict); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

// migrateStats 迁移统计
type migrateStats struct {
	users     int
	files     int
	tags      int
	relations int
	skipped   int
	errors    []string
}

// runMigration 执行数据库迁移
func runMigration(fromSQLite, toPostgres string, skipConfirm bool, batchSize int, onConflict string) error {
	if onConflict != "skip" && onConflict != "overwrite" && onConflict != "error" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
	if fromSQLite == "" || toPostgres == "" {
		return fmt.Errorf("both --from-sqlite and --to-postgres are required")
	}

	log.Printf("Migrating from sqlite (%s) to postgres", fromSQLite)
	log.Printf("Conflict strategy: %s", onConflict)

	sourceDB, err := openDatabase(sqlite.Open(fromSQLite))
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	sqlDB, _ := sourceDB.DB()
	defer sqlDB.Close()

	targetDB, err := openDatabase(postgres.Open(toPostgres))
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	sqlDB2, _ := targetDB.DB()
	defer sqlDB2.Close()

	if !skipConfirm {
		fmt.Println("\nWarning: This will migrate all data from source to target database.")
		fmt.Printf("Conflict resolution strategy: %s\n", onConflict)
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	log.Println("Migrating database schema...")
	if err := targetDB.AutoMigrate(database.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	ctx := context.Background()
	stats := &migrateStats{}

	log.Println("Migrating users...")
	if err := migrateRows(ctx, sourceDB, targetDB, stats, &stats.users, batchSize, onConflict,
		func() interface{} { return &[]models.User{} }); err != nil {
		return err
	}

	log.Println("Migrating tags...")
	if err := migrateRows(ctx, sourceDB, targetDB, stats, &stats.tags, batchSize, onConflict,
		func() interface{} { return &[]models.Tag{} }); err != nil {
		return err
	}

	log.Println("Migrating files...")
	if err := migrateRows(ctx, sourceDB, targetDB, stats, &stats.files, batchSize, onConflict,
		func() interface{} { return &[]models.File{} }); err != nil {
		return err
	}

	log.Println("Migrating tag_files relations...")
	if err := migrateTagFiles(ctx, sourceDB, targetDB, stats); err != nil {
		return err
	}

	printMigrateStats(stats)

	if len(stats.errors) > 0 {
		return fmt.Errorf("migration completed with %d errors", len(stats.errors))
	}

	log.Println("Migration completed successfully!")
	return nil
}

// openDatabase 打开数据库连接
func openDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// migrateRows 按批次搬运一张带主键的表
func migrateRows(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, counter *int, batchSize int, onConflict string, newBatch func() interface{}) error {
	offset := 0
	for {
		batch := newBatch()
		if err := sourceDB.WithContext(ctx).Limit(batchSize).Offset(offset).Find(batch).Error; err != nil {
			return err
		}

		moved, err := copyBatch(ctx, targetDB, batch, onConflict, stats)
		if err != nil {
			return err
		}
		*counter += moved

		switch rows := batch.(type) {
		case *[]models.User:
			if len(*rows) < batchSize {
				return nil
			}
		case *[]models.Tag:
			if len(*rows) < batchSize {
				return nil
			}
		case *[]models.File:
			if len(*rows) < batchSize {
				return nil
			}
		}
		offset += batchSize
	}
}

// copyBatch 逐行写入目标库，按策略处理主键冲突
func copyBatch(ctx context.Context, targetDB *gorm.DB, batch interface{}, onConflict string, stats *migrateStats) (int, error) {
	moved := 0

	copyOne := func(id uint, model interface{}, blank interface{}) error {
		result := targetDB.WithContext(ctx).First(blank, id)
		if result.Error == nil {
			switch onConflict {
			case "skip":
				stats.skipped++
				return nil
			case "error":
				return fmt.Errorf("record already exists: id=%d", id)
			case "overwrite":
				if err := targetDB.WithContext(ctx).Delete(blank, id).Error; err != nil {
					return err
				}
			}
		} else if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}

		if err := targetDB.WithContext(ctx).Create(model).Error; err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate record %d: %v", id, err))
			return nil
		}
		moved++
		return nil
	}

	switch rows := batch.(type) {
	case *[]models.User:
		for i := range *rows {
			if err := copyOne((*rows)[i].ID, &(*rows)[i], &models.User{}); err != nil {
				return moved, err
			}
		}
	case *[]models.Tag:
		for i := range *rows {
			if err := copyOne((*rows)[i].ID, &(*rows)[i], &models.Tag{}); err != nil {
				return moved, err
			}
		}
	case *[]models.File:
		for i := range *rows {
			if err := copyOne((*rows)[i].ID, &(*rows)[i], &models.File{}); err != nil {
				return moved, err
			}
		}
	}

	return moved, nil
}

// migrateTagFiles 搬运无主键的关联表，已存在的关联直接跳过
func migrateTagFiles(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats) error {
	var relations []models.TagFile
	if err := sourceDB.WithContext(ctx).Find(&relations).Error; err != nil {
		return err
	}

	for _, rel := range relations {
		var count int64
		if err := targetDB.WithContext(ctx).
			Model(&models.TagFile{}).
			Where("tag_id = ? AND file_id = ?", rel.TagID, rel.FileID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			stats.skipped++
			continue
		}

		link := models.TagFile{TagID: rel.TagID, FileID: rel.FileID}
		if err := targetDB.WithContext(ctx).Create(&link).Error; err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf(
				"failed to migrate tag_file relation (tag=%d, file=%d): %v", rel.TagID, rel.FileID, err))
			continue
		}
		stats.relations++
	}

	log.Printf("Migrated %d tag_file relations", stats.relations)
	return nil
}

// printMigrateStats 打印迁移统计
func printMigrateStats(stats *migrateStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Migration Statistics")
	fmt.Println("========================================")
	fmt.Printf("Users migrated:     %d\n", stats.users)
	fmt.Printf("Files migrated:     %d\n", stats.files)
	fmt.Printf("Tags migrated:      %d\n", stats.tags)
	fmt.Printf("Relations migrated: %d\n", stats.relations)
	fmt.Printf("Skipped records:    %d\n", stats.skipped)
	fmt.Println("========================================")

	if len(stats.errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
