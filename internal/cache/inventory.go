package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AccountKeyPrefix     = "account:%d"
	UserAccountKeyPrefix = "account:user:%d"
	PostKeyPrefix        = "post:%d"
	ConfigKeyPrefix      = "config:%d"
)

const (
	AccountTTL = 10 * time.Minute
	PostTTL    = 30 * time.Minute
	ConfigTTL  = 30 * time.Minute
)

func AccountKey(accountID uint) string {
	return fmt.Sprintf(AccountKeyPrefix, accountID)
}

// UserAccountKey caches the account owned by a user, served by the current-user endpoint.
func UserAccountKey(userID uint) string {
	return fmt.Sprintf(UserAccountKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ConfigKey(configID uint) string {
	return fmt.Sprintf(ConfigKeyPrefix, configID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateAccount(ctx context.Context, accountID uint, userID *uint) {
	keys := []string{AccountKey(accountID)}
	if userID != nil {
		keys = append(keys, UserAccountKey(*userID))
	}
	Invalidate(ctx, keys...)
}
