package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"schoolku_backend/internals/features/users/auth/model"
)

// StartBlacklistCleanupScheduler membuang entri token_blacklist yang sudah
// lewat masa tenggang setelah expired. Token yang masih hidup tidak pernah
// disentuh — middleware auth tetap menolaknya sampai benar-benar expired.
func StartBlacklistCleanupScheduler(db *gorm.DB) {
	go func() {
		graceDays := 7
		if v := os.Getenv("TOKEN_BLACKLIST_TTL_DAYS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				graceDays = n
			}
		}

		for {
			cutoff := time.Now().UTC().AddDate(0, 0, -graceDays)
			res := db.Where("expired_at < ?", cutoff).Delete(&model.TokenBlacklist{})
			switch {
			case res.Error != nil:
				log.Printf("[CLEANUP ERROR] token_blacklist: %v", res.Error)
			case res.RowsAffected > 0:
				log.Printf("[CLEANUP] 🧹 token_blacklist: %d baris dibuang (expired < %s)",
					res.RowsAffected, cutoff.Format(time.RFC3339))
			}

			time.Sleep(24 * time.Hour)
		}
	}()
}
