package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/domain/event"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// ImageHandler 消费 image topic，把上传完成的头像地址回写到用户目录
// 默认不产生任何 socket 推送，需要“头像已更新”推送时在这里挂钩
type ImageHandler struct {
	users out.UserDirectory
}

var _ in.TopicHandler = (*ImageHandler)(nil)

func NewImageHandler(users out.UserDirectory) *ImageHandler {
	return &ImageHandler{users: users}
}

func (h *ImageHandler) Topic() string        { return event.TopicImage }
func (h *ImageHandler) ReadFromOldest() bool { return false }

func (h *ImageHandler) Handle(ctx context.Context, value []byte) error {
	env, err := event.Decode(event.TopicImage, value)
	if err != nil {
		return err
	}

	switch env.Kind {
	case event.KindAvatarUploaded:
		if err := h.users.UpdateAvatar(ctx, env.Avatar.UserID, env.Avatar.AvatarURL); err != nil {
			return fmt.Errorf("update avatar failed: %w", err)
		}
		zap.L().Info("avatar updated",
			zap.Int64("userID", env.Avatar.UserID),
			zap.String("avatarUrl", env.Avatar.AvatarURL))
		return nil
	default:
		return nil
	}
}
