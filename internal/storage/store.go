package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const snapshotKeyPrefix = "snapshot:"

// SnapshotStore хранит zstd-сжатые снапшоты миров в BadgerDB.
type SnapshotStore struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewSnapshotStore открывает хранилище снапшотов в dataPath
func NewSnapshotStore(dataPath string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(filepath.Join(dataPath, "snapshots"))
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание zstd-компрессора: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание zstd-декомпрессора: %w", err)
	}

	return &SnapshotStore{db: db, encoder: encoder, decoder: decoder}, nil
}

// Save сохраняет снапшот под именем мира из метаданных
func (ss *SnapshotStore) Save(save *WorldSave) error {
	if save.Metadata.Name == "" {
		return fmt.Errorf("снапшот без имени мира")
	}

	data, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("сериализация снапшота: %w", err)
	}

	compressed := ss.encoder.EncodeAll(data, nil)
	key := []byte(snapshotKeyPrefix + save.Metadata.Name)

	err = ss.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, compressed)
	})
	if err != nil {
		return fmt.Errorf("запись снапшота %q: %w", save.Metadata.Name, err)
	}
	return nil
}

// Load читает снапшот по имени мира. Отсутствие снапшота — не ошибка:
// возвращается (nil, nil).
func (ss *SnapshotStore) Load(name string) (*WorldSave, error) {
	var compressed []byte
	err := ss.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKeyPrefix + name))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение снапшота %q: %w", name, err)
	}

	data, err := ss.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("распаковка снапшота %q: %w", name, err)
	}

	var save WorldSave
	if err := json.Unmarshal(data, &save); err != nil {
		return nil, fmt.Errorf("разбор снапшота %q: %w", name, err)
	}
	return &save, nil
}

// List возвращает имена всех сохранённых миров
func (ss *SnapshotStore) List() ([]string, error) {
	var names []string
	err := ss.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(snapshotKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, snapshotKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("перечисление снапшотов: %w", err)
	}
	return names, nil
}

// Close закрывает хранилище
func (ss *SnapshotStore) Close() error {
	ss.decoder.Close()
	ss.encoder.Close()
	return ss.db.Close()
}
