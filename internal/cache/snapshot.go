package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/subwaymap/internal/metrics"
)

// ============================================================================
// SNAPSHOT STORE - CACHÉ DE SNAPSHOTS EN DISCO CON TTL
// ============================================================================
// Caché key-value respaldado en archivos JSON, con expiración por tiempo de
// modificación del archivo. La infraestructura del metro (líneas, rutas,
// shapes, paradas) cambia muy poco, así que los snapshots se persisten en
// disco y sobreviven reinicios del servicio.
//
// Formato de archivo (<key>.json):
//   {
//     "timestamp": "<ISO-8601>",
//     "data": <payload>
//   }
//
// El timestamp es informativo; la validez se decide solo por el mtime.
//
// Uso:
//   store, _ := NewSnapshotStore("Data", cache.DefaultTTL, nil)
//   store.Save("subway_lines", lines)
//   var lines []mbta.Resource
//   if store.Load("subway_lines", &lines) {
//       return lines
//   }

// DefaultTTL es la expiración por defecto: 168h (7 días)
const DefaultTTL = 168 * time.Hour

// snapshotEnvelope es el wrapper persistido en disco
type snapshotEnvelope struct {
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// SnapshotStore es un caché key-value respaldado en archivos JSON
type SnapshotStore struct {
	dir     string
	ttl     time.Duration
	metrics *metrics.Collector
}

// NewSnapshotStore crea el store y asegura que el directorio exista.
// Un ttl <= 0 usa DefaultTTL.
func NewSnapshotStore(dir string, ttl time.Duration, collector *metrics.Collector) (*SnapshotStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating cache dir %s: %w", dir, err)
	}
	return &SnapshotStore{dir: dir, ttl: ttl, metrics: collector}, nil
}

// Dir retorna el directorio del caché
func (s *SnapshotStore) Dir() string { return s.dir }

// TTL retorna la expiración configurada
func (s *SnapshotStore) TTL() time.Duration { return s.ttl }

// Writable verifica que el directorio acepte escrituras, para health checks
func (s *SnapshotStore) Writable() error {
	probe := filepath.Join(s.dir, ".probe-"+uuid.NewString())
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// filePath mapea una key a su archivo.
// Las keys deben ser nombres planos: nada de separadores de ruta.
func (s *SnapshotStore) filePath(key string) (string, bool) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", false
	}
	return filepath.Join(s.dir, key+".json"), true
}

// Save persiste el payload bajo la key. Cualquier falla de serialización o
// de disco se registra y se descarta: el servicio sigue operando sin caché.
func (s *SnapshotStore) Save(key string, payload interface{}) {
	path, ok := s.filePath(key)
	if !ok {
		s.writeFailed(key, fmt.Errorf("key inválida"))
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.writeFailed(key, err)
		return
	}

	envelope := snapshotEnvelope{
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      raw,
	}

	out, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		s.writeFailed(key, err)
		return
	}

	// Escritura atómica: temporal con sufijo único + rename.
	// Entre escrituras concurrentes de la misma key gana la última.
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		s.writeFailed(key, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		s.writeFailed(key, err)
		return
	}

	if s.metrics != nil {
		s.metrics.CacheWrites.Inc()
	}
	log.Printf("💾 CACHE STORE: %s (%d bytes)", key, len(out))
}

func (s *SnapshotStore) writeFailed(key string, err error) {
	if s.metrics != nil {
		s.metrics.CacheWriteErrs.Inc()
	}
	log.Printf("⚠️ Error guardando cache %s: %v", key, err)
}

// Valid indica si la key existe y su archivo no ha expirado (por mtime)
func (s *SnapshotStore) Valid(key string) bool {
	path, ok := s.filePath(key)
	if !ok {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < s.ttl
}

// Load carga el payload de la key en dest.
// Retorna false si no existe, expiró o el archivo está corrupto: un snapshot
// ilegible cuenta como miss, nunca como error, y el archivo queda en su
// lugar hasta la próxima escritura.
func (s *SnapshotStore) Load(key string, dest interface{}) bool {
	if !s.Valid(key) {
		return s.miss()
	}

	path, _ := s.filePath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Error leyendo cache %s: %v", key, err)
		return s.miss()
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("⚠️ Cache corrupto %s: %v", key, err)
		return s.miss()
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return s.miss()
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		log.Printf("⚠️ Cache corrupto %s: %v", key, err)
		return s.miss()
	}

	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	log.Printf("🎯 CACHE HIT: %s", key)
	return true
}

func (s *SnapshotStore) miss() bool {
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
	return false
}

// Clear elimina el snapshot de la key. Retorna true si existía.
func (s *SnapshotStore) Clear(key string) bool {
	path, ok := s.filePath(key)
	if !ok {
		return false
	}
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Error eliminando cache %s: %v", key, err)
		}
		return false
	}
	log.Printf("🗑️ CACHE EVICT: %s", key)
	return true
}

// ClearAll elimina todos los snapshots (*.json). Retorna cuántos eliminó.
func (s *SnapshotStore) ClearAll() int {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		log.Printf("⚠️ Error listando cache: %v", err)
		return 0
	}

	count := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			log.Printf("⚠️ Error eliminando %s: %v", f, err)
			continue
		}
		count++
	}

	log.Printf("🧹 CACHE CLEAR: %d snapshots eliminados", count)
	return count
}

// SnapshotStats son las estadísticas del caché en disco
type SnapshotStats struct {
	TotalFiles   int     `json:"total_files"`
	ValidFiles   int     `json:"valid_files"`
	ExpiredFiles int     `json:"expired_files"`
	SizeMB       float64 `json:"size_mb"`
	TTLHours     float64 `json:"ttl_hours"`
}

// Stats recorre el directorio y retorna el estado actual del caché
func (s *SnapshotStore) Stats() SnapshotStats {
	stats := SnapshotStats{TTLHours: s.ttl.Hours()}

	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return stats
	}

	var size int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		stats.TotalFiles++
		size += info.Size()
		if time.Since(info.ModTime()) < s.ttl {
			stats.ValidFiles++
		} else {
			stats.ExpiredFiles++
		}
	}
	stats.SizeMB = float64(size) / 1024.0 / 1024.0

	return stats
}
