package repositories

import (
	"context"
	gocache "github.com/patrickmn/go-cache"
	"strconv"
	"time"
)

type profileRepository interface {
	HospitalUserID(ctx context.Context, hospitalProfileID int64) (int64, error)
	DoctorUserID(ctx context.Context, doctorProfileID int64) (int64, error)
}

// CachedProfiles memoizes profile to user id lookups. A profile never changes
// owner, so entries only expire to bound memory.
type CachedProfiles struct {
	repo  profileRepository
	cache *gocache.Cache
}

func NewCachedProfiles(repo profileRepository) *CachedProfiles {
	return &CachedProfiles{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedProfiles) HospitalUserID(ctx context.Context, hospitalProfileID int64) (int64, error) {
	return c.lookup("hospital:"+strconv.FormatInt(hospitalProfileID, 10), func() (int64, error) {
		return c.repo.HospitalUserID(ctx, hospitalProfileID)
	})
}

func (c *CachedProfiles) DoctorUserID(ctx context.Context, doctorProfileID int64) (int64, error) {
	return c.lookup("doctor:"+strconv.FormatInt(doctorProfileID, 10), func() (int64, error) {
		return c.repo.DoctorUserID(ctx, doctorProfileID)
	})
}

func (c *CachedProfiles) lookup(key string, load func() (int64, error)) (int64, error) {
	if value, found := c.cache.Get(key); found {
		return value.(int64), nil
	}

	id, err := load()
	if id != 0 {
		c.cache.Set(key, id, gocache.DefaultExpiration)
	}

	return id, err
}
