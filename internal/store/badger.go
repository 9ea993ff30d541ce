package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
)

// Key layout. Timestamps are zero-padded UnixNano so lexicographic
// order is chronological order, which lets range queries run as
// prefix scans.
//
//	d:<uid>                     deployment
//	di:<created>:<uid>          deployment creation-time index
//	n:<uid>                     node
//	nd:<dep>:<uid>              deployment -> node index (value: node uid)
//	s:<dep>:<ts>:<uid>          telemetry sample
//	e:<dep>:<ts>:<uid>          audit event
func dKey(uid string) []byte  { return []byte("d:" + uid) }
func nKey(uid string) []byte  { return []byte("n:" + uid) }
func diKey(created time.Time, uid string) []byte {
	return []byte(fmt.Sprintf("di:%020d:%s", created.UnixNano(), uid))
}
func ndKey(deploymentUID, nodeUID string) []byte {
	return []byte("nd:" + deploymentUID + ":" + nodeUID)
}
func sKey(deploymentUID string, ts time.Time, uid string) []byte {
	return []byte(fmt.Sprintf("s:%s:%020d:%s", deploymentUID, ts.UnixNano(), uid))
}
func eKey(deploymentUID string, ts time.Time, uid string) []byte {
	return []byte(fmt.Sprintf("e:%s:%020d:%s", deploymentUID, ts.UnixNano(), uid))
}

// BadgerStore is a Store implementation on embedded BadgerDB.
// One Badger transaction per Store operation gives the atomic
// update-with-audit-event commit the lifecycle scheduler relies on.
type BadgerStore struct {
	db     *badger.DB
	logger *logging.Logger
}

// NewBadgerStore opens (or creates) a Badger-backed store at dir.
// An empty dir opens an in-memory instance, used by tests.
func NewBadgerStore(dir string, logger *logging.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	// Badger's own logger is noisy at INFO; route nothing through it
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Info("Badger store opened", "dir", dir, "in_memory", dir == "")
	return &BadgerStore{db: db, logger: logger}, nil
}

func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// CreateDeployment atomically persists the deployment, its nodes, and
// the creation event
func (s *BadgerStore) CreateDeployment(ctx context.Context, dep *models.Deployment, nodes []*models.Node, event *models.Event) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, dKey(dep.UID), dep); err != nil {
			return err
		}
		if err := txn.Set(diKey(dep.CreatedAt, dep.UID), []byte(dep.UID)); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := setJSON(txn, nKey(n.UID), n); err != nil {
				return err
			}
			if err := txn.Set(ndKey(dep.UID, n.UID), []byte(n.UID)); err != nil {
				return err
			}
		}
		if event != nil {
			return setJSON(txn, eKey(dep.UID, event.CreatedAt, event.UID), event)
		}
		return nil
	})
}

// GetDeployment returns the deployment with the given UID
func (s *BadgerStore) GetDeployment(ctx context.Context, uid string) (*models.Deployment, error) {
	var dep models.Deployment
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, dKey(uid), &dep)
	})
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// ListDeployments returns deployments newest-first
func (s *BadgerStore) ListDeployments(ctx context.Context, offset, limit int) ([]*models.Deployment, error) {
	result := make([]*models.Deployment, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("di:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		// Reverse iteration starts past the last key in the prefix range
		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(result) >= limit {
				break
			}
			uid, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var dep models.Deployment
			if err := getJSON(txn, dKey(string(uid)), &dep); err != nil {
				return err
			}
			result = append(result, &dep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountDeployments returns the number of deployments
func (s *BadgerStore) CountDeployments(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("di:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// collectKeys gathers every key under prefix
func (s *BadgerStore) collectKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// DeleteDeployment removes the deployment and everything it owns
func (s *BadgerStore) DeleteDeployment(ctx context.Context, uid string) error {
	dep, err := s.GetDeployment(ctx, uid)
	if err != nil {
		return err
	}

	var doomed [][]byte
	err = s.db.View(func(txn *badger.Txn) error {
		doomed = append(doomed, dKey(uid), diKey(dep.CreatedAt, uid))
		for _, idx := range s.collectKeys(txn, []byte("nd:"+uid+":")) {
			doomed = append(doomed, idx)
			// nd:<dep>:<uid> carries the node uid as its suffix
			nodeUID := string(idx[len("nd:"+uid+":"):])
			doomed = append(doomed, nKey(nodeUID))
		}
		doomed = append(doomed, s.collectKeys(txn, []byte("s:"+uid+":"))...)
		doomed = append(doomed, s.collectKeys(txn, []byte("e:"+uid+":"))...)
		return nil
	})
	if err != nil {
		return err
	}

	// WriteBatch sidesteps the single-txn size limit on large cascades
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range doomed {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return wb.Flush()
}

// GetNode returns the node with the given UID
func (s *BadgerStore) GetNode(ctx context.Context, uid string) (*models.Node, error) {
	var node models.Node
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, nKey(uid), &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListNodesByDeployment returns a deployment's nodes in creation order
func (s *BadgerStore) ListNodesByDeployment(ctx context.Context, deploymentUID string) ([]*models.Node, error) {
	result := make([]*models.Node, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(dKey(deploymentUID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		prefix := []byte("nd:" + deploymentUID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			uid, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var node models.Node
			if err := getJSON(txn, nKey(string(uid)), &node); err != nil {
				return err
			}
			result = append(result, &node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ordinal < result[j].Ordinal })
	return result, nil
}

// ListNodesInStates returns all nodes in any of the given states
func (s *BadgerStore) ListNodesInStates(ctx context.Context, states ...models.NodeState) ([]*models.Node, error) {
	wanted := make(map[models.NodeState]bool, len(states))
	for _, st := range states {
		wanted[st] = true
	}

	result := make([]*models.Node, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("n:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var node models.Node
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &node)
			})
			if err != nil {
				return err
			}
			if wanted[node.State] {
				n := node
				result = append(result, &n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeploymentUID != result[j].DeploymentUID {
			return result[i].DeploymentUID < result[j].DeploymentUID
		}
		return result[i].Ordinal < result[j].Ordinal
	})
	return result, nil
}

// UpdateNode atomically persists the node and appends the audit event
func (s *BadgerStore) UpdateNode(ctx context.Context, node *models.Node, event *models.Event) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nKey(node.UID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		if err := setJSON(txn, nKey(node.UID), node); err != nil {
			return err
		}
		if event != nil {
			return setJSON(txn, eKey(node.DeploymentUID, event.CreatedAt, event.UID), event)
		}
		return nil
	})
}

// InsertSample appends one telemetry sample
func (s *BadgerStore) InsertSample(ctx context.Context, sample *models.TelemetrySample) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, sKey(sample.DeploymentUID, sample.Timestamp, sample.UID), sample)
	})
}

// ListSamples returns samples matching the filter, newest-first
func (s *BadgerStore) ListSamples(ctx context.Context, filter SampleFilter) ([]*models.TelemetrySample, error) {
	result := make([]*models.TelemetrySample, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("s:" + filter.DeploymentUID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if filter.Limit > 0 && len(result) >= filter.Limit {
				break
			}
			var sample models.TelemetrySample
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sample)
			})
			if err != nil {
				return err
			}
			if !filter.Since.IsZero() && sample.Timestamp.Before(filter.Since) {
				// Keys are time-ordered, so everything further back is older
				break
			}
			if !filter.Until.IsZero() && !sample.Timestamp.Before(filter.Until) {
				continue
			}
			if filter.NodeUID != "" && sample.NodeUID != filter.NodeUID {
				continue
			}
			sm := sample
			result = append(result, &sm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AppendEvent appends one audit event
func (s *BadgerStore) AppendEvent(ctx context.Context, event *models.Event) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, eKey(event.DeploymentUID, event.CreatedAt, event.UID), event)
	})
}

// ListEvents returns a deployment's events newest-first
func (s *BadgerStore) ListEvents(ctx context.Context, deploymentUID string, limit int) ([]*models.Event, error) {
	result := make([]*models.Event, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("e:" + deploymentUID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(result) >= limit {
				break
			}
			var event models.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return err
			}
			ev := event
			result = append(result, &ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Ping reports store availability
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger store is closed")
	}
	return ctx.Err()
}

// Close releases store resources
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
