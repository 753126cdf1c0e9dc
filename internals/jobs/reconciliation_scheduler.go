package jobs

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	financeService "schoolku_backend/internals/features/finance/payments/service"
	libraryService "schoolku_backend/internals/features/library/circulation/service"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
	transportService "schoolku_backend/internals/features/transport/trips/service"
)

// StartReconciliationScheduler menjalankan pass rekonsiliasi periodik untuk
// semua sekolah aktif: cache ketersediaan buku + denda overdue, status fee
// plan, dan discrepancy transport. Semua pass idempoten — dijalankan ulang
// tanpa efek ganda.
func StartReconciliationScheduler(db *gorm.DB) {
	go func() {
		intervalMin := 60
		if val := os.Getenv("RECONCILE_INTERVAL_MINUTES"); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
				intervalMin = parsed
			}
		}

		circ := libraryService.NewCirculationService(db)
		fin := financeService.NewFinanceService(db)
		trip := transportService.NewTripService(db)

		for {
			log.Println("[RECONCILE] Menjalankan pass rekonsiliasi semua sekolah...")
			start := time.Now()

			var schools []schoolModel.SchoolModel
			if err := schoolModel.ScopeActiveSchools(db).Find(&schools).Error; err != nil {
				log.Printf("[RECONCILE ERROR] Gagal ambil daftar sekolah: %v", err)
			} else {
				for i := range schools {
					id := schools[i].SchoolID

					if _, err := circ.ReconcileSchool(id); err != nil {
						log.Printf("[RECONCILE ERROR] library school=%s: %v", id, err)
					}
					if _, err := fin.ReconcileSchool(id); err != nil {
						log.Printf("[RECONCILE ERROR] finance school=%s: %v", id, err)
					}
					if _, err := trip.ReconcileSchool(id); err != nil {
						log.Printf("[RECONCILE ERROR] transport school=%s: %v", id, err)
					}
				}
				log.Printf("[RECONCILE] Selesai %d sekolah dalam %s", len(schools), time.Since(start).Round(time.Millisecond))
			}

			time.Sleep(time.Duration(intervalMin) * time.Minute)
		}
	}()
}
