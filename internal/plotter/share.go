package plotter

import "fmt"

// Share delegates the given keys (or groups; all keys when empty) of
// other to this plotter: other's formatoptions read their effective
// value from here and re-run whenever this plotter updates them. The
// current values are applied to other immediately.
func (p *Plotter) Share(other *Plotter, keys ...string) error {
	ks, err := p.expandKeys(keys)
	if err != nil {
		return err
	}
	token := newToken()
	for _, key := range ks {
		if err := other.CheckKey(key); err != nil {
			return err
		}
		src := p.fmtos[key]
		dst := other.fmtos[key]
		if err := shareApply(src, dst, token, !other.initialized); err != nil {
			return err
		}
		src.base().shared[dst] = true
		other.sharedIn[key] = src
	}
	return nil
}

// Unshare releases this plotter's control over other's keys (or
// groups; everything shared with other when empty). Each released key
// gets one forced update so it reflects its own stored value again.
func (p *Plotter) Unshare(other *Plotter, keys ...string) error {
	explicit := len(keys) > 0
	ks, err := p.expandKeys(keys)
	if err != nil {
		return err
	}
	for _, key := range ks {
		src := other.sharedIn[key]
		if src == nil || src.base().plotter != p {
			if explicit {
				return fmt.Errorf("%w: %q is not shared with this plotter", ErrNotShared, key)
			}
			continue
		}
		if err := releaseShare(other, key); err != nil {
			return err
		}
	}
	return nil
}

// UnshareMe releases the given keys (or groups; every delegated key
// when empty) from whatever plotter controls them.
func (p *Plotter) UnshareMe(keys ...string) error {
	explicit := len(keys) > 0
	ks, err := p.expandKeys(keys)
	if err != nil {
		return err
	}
	for _, key := range ks {
		if p.sharedIn[key] == nil {
			if explicit {
				return fmt.Errorf("%w: %q", ErrNotShared, key)
			}
			continue
		}
		if err := releaseShare(p, key); err != nil {
			return err
		}
	}
	return nil
}

// releaseShare drops the delegation link for one key and forces a
// re-run on the now independent formatoption with drawing suppressed.
func releaseShare(target *Plotter, key string) error {
	src := target.sharedIn[key]
	delete(target.sharedIn, key)
	delete(src.base().shared, target.fmtos[key])
	_, err := target.Update(nil, WithForce(key), WithDraw(false))
	return err
}

// shareApply runs the setting-level sharing protocol: lock self, lock
// the target's children and dependencies, lock the target, apply the
// source value, release in reverse. The fixed lock order across all
// call sites is what keeps reciprocal sharing deadlock free; the token
// makes re-entry from the same cycle a no-op.
func shareApply(src, dst Formatoption, token *lockToken, initializing bool) error {
	sb := src.base()
	db := dst.base()
	dp := db.plotter

	sb.lock.acquire(token)
	defer sb.lock.release(token)

	var locked []*rlock
	for _, key := range relationKeys(dst) {
		if rel, ok := dp.fmtos[key]; ok {
			rel.base().lock.acquire(token)
			locked = append(locked, &rel.base().lock)
		}
	}
	db.lock.acquire(token)
	defer func() {
		db.lock.release(token)
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].release(token)
		}
	}()

	value := shareValue(src)
	validated, err := dst.Validate(value)
	if err != nil {
		return &ValidationError{Key: dst.Key(), Value: value, Err: err}
	}
	dp.values[dst.Key()] = validated

	if initializing {
		if init, ok := dst.(Initializer); ok {
			return init.InitializePlot(validated)
		}
	}
	return dst.Update(validated)
}
