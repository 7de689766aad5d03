// Package tasks は非同期タスク（置き換え済みアセットの削除）を管理します。
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

const (
	taskTypeAssetCleanup = "asset:cleanup"

	queueAssets = "assets"
)

// AssetCleanupPayload はアセット削除タスクのペイロードです。
type AssetCleanupPayload struct {
	PublicID string `json:"publicId"`
}

// AssetDeleter は外部メディアサービスからアセットを削除するクライアントです。
type AssetDeleter interface {
	DeleteImage(ctx context.Context, publicID string) error
}

// Manager はタスクの投入とワーカーの起動を担います。
type Manager struct {
	client  *asynq.Client
	server  *asynq.Server
	mux     *asynq.ServeMux
	deleter AssetDeleter
	logger  *log.Logger
}

// NewManager は Manager を初期化します。
func NewManager(redisURL string, deleter AssetDeleter, logger *log.Logger) (*Manager, error) {
	if deleter == nil {
		return nil, errors.New("deleter is nil")
	}

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueAssets: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	manager := &Manager{
		client:  client,
		server:  server,
		mux:     mux,
		deleter: deleter,
		logger:  logger,
	}
	mux.HandleFunc(taskTypeAssetCleanup, manager.handleAssetCleanup)
	return manager, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && err != asynq.ErrServerClosed {
			if m.logger != nil {
				m.logger.Printf("asynq server stopped with error: %v", err)
			} else {
				log.Printf("asynq server stopped with error: %v", err)
			}
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.server.Shutdown()
	return m.client.Close()
}

// EnqueueAssetCleanup はアセット削除タスクをキューに投入します。
func (m *Manager) EnqueueAssetCleanup(ctx context.Context, publicID string) error {
	if publicID == "" {
		return fmt.Errorf("publicID is required")
	}

	body, err := json.Marshal(AssetCleanupPayload{PublicID: publicID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskTypeAssetCleanup, body, asynq.Queue(queueAssets))
	if _, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(1)); err != nil {
		return err
	}
	return nil
}

func (m *Manager) handleAssetCleanup(ctx context.Context, task *asynq.Task) error {
	var payload AssetCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	if payload.PublicID == "" {
		return fmt.Errorf("missing publicId in payload")
	}

	if err := m.deleter.DeleteImage(ctx, payload.PublicID); err != nil {
		if m.logger != nil {
			m.logger.Printf("asset cleanup failed public_id=%s: %v", payload.PublicID, err)
		}
		return err
	}
	return nil
}
