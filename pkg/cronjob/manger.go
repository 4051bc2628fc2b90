package cronjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/metrics"
)

const PurgeExpiredTokensJob = "purge-expired-tokens"

type CronJobManager struct {
	q         *query.Query
	cron      *cron.Cron
	cronMutex sync.RWMutex
	entries   map[string]cron.EntryID
}

func NewCronJobManager(q *query.Query) *CronJobManager {
	return &CronJobManager{
		q:       q,
		cron:    cron.New(cron.WithLocation(time.Local)),
		entries: make(map[string]cron.EntryID),
	}
}

// AddCronJob schedules f under jobName, replacing a job with the same name.
func (cm *CronJobManager) AddCronJob(jobName, jobSpec string, f cron.FuncJob) (cron.EntryID, error) {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()

	entryID, err := cm.cron.AddFunc(jobSpec, f)
	if err != nil {
		err = fmt.Errorf("CronJobManager.AddCronJob %s: %w", jobName, err)
		klog.Error(err)
		return -1, err
	}
	if old, ok := cm.entries[jobName]; ok {
		cm.cron.Remove(old)
	}
	cm.entries[jobName] = entryID
	return entryID, nil
}

// RemoveCronJob unschedules jobName, unknown names are ignored.
func (cm *CronJobManager) RemoveCronJob(jobName string) {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()

	if id, ok := cm.entries[jobName]; ok {
		cm.cron.Remove(id)
		delete(cm.entries, jobName)
	}
}

// JobNames returns the scheduled job names.
func (cm *CronJobManager) JobNames() []string {
	cm.cronMutex.RLock()
	defer cm.cronMutex.RUnlock()

	names := make([]string, 0, len(cm.entries))
	for name := range cm.entries {
		names = append(names, name)
	}
	return names
}

// RegisterJobs schedules the maintenance jobs configured in conf.
func (cm *CronJobManager) RegisterJobs(conf *config.Config) error {
	_, err := cm.AddCronJob(PurgeExpiredTokensJob, conf.Cron.PurgeTokensSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := cm.PurgeExpiredTokens(ctx); err != nil {
			klog.Error(err)
		}
	})
	return err
}

// PurgeExpiredTokens drops blacklist entries of tokens that are expired anyway.
func (cm *CronJobManager) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := cm.q.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("CronJobManager.PurgeExpiredTokens: %w", err)
	}
	metrics.PurgedTokens.Add(float64(n))
	if n > 0 {
		klog.Infof("purged %d expired blacklisted tokens", n)
	}
	return n, nil
}

func (cm *CronJobManager) Start() {
	cm.cron.Start()
}

// Stop stops the scheduler; the returned context is done once running jobs finish.
func (cm *CronJobManager) Stop() context.Context {
	return cm.cron.Stop()
}
