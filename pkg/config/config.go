package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"gopkg.in/yaml.v3"

	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

const (
	tagDefault = "default"
	envPath    = "ISO8583_CONFIG"

	pollInterval = time.Second
)

// Config is a YAML file bound to a struct. Fields left empty by the file
// take their `default` tag value.
type Config struct {
	path      string
	data      interface{}
	log       *logger.Logger
	mu        sync.Mutex
	observers []func(interface{})
	watcher   *watcher.Watcher
}

// New reads configFileName from configFileDir (or next to the executable)
// into cfg. The ISO8583_CONFIG environment variable overrides the path. A
// missing file leaves cfg to its defaults.
func New(configFileName, configFileDir string, cfg interface{}, log *logger.Logger) (*Config, error) {
	path, ok := os.LookupEnv(envPath)
	if !ok {
		if configFileDir != "" {
			path = filepath.Join(configFileDir, configFileName)
		} else {
			ex, err := os.Executable()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(filepath.Dir(ex), configFileName)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	if err := Parse(cfg); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.Nop()
	}
	return &Config{
		path: path,
		data: cfg,
		log:  log,
	}, nil
}

// GetPath returns the file the config was read from.
func (c *Config) GetPath() string {
	return c.path
}

// SetLogger replaces the logger used by the watcher. Call it before the
// first AddObserver.
func (c *Config) SetLogger(log *logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = log
}

// AddObserver registers f to be called with the reloaded struct whenever
// the file is written. The first observer starts the watcher.
func (c *Config) AddObserver(f func(interface{})) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		w, err := WatchFile(c.path, c.log, c.reload)
		if err != nil {
			return err
		}
		c.watcher = w
	}
	c.observers = append(c.observers, f)
	return nil
}

// Close stops the watcher.
func (c *Config) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
}

func (c *Config) reload(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := yaml.Unmarshal(data, c.data); err != nil {
		c.log.Error().Err(err).Msg("failed to unmarshal config file")
		return
	}
	if err := Parse(c.data); err != nil {
		c.log.Error().Err(err).Msg("failed to parse config file")
		return
	}
	for i := range c.observers {
		c.observers[i](c.data)
	}
}

// WatchFile calls onChange with the new content every time path is
// written. The returned watcher must be closed by the caller.
func WatchFile(path string, log *logger.Logger, onChange func([]byte)) (*watcher.Watcher, error) {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)
	if err := w.Add(path); err != nil {
		return nil, errors.Wrapf(err, "failed to watch %s", path)
	}

	go func() {
		for {
			select {
			case <-w.Event:
				log.Info().Str("path", path).Msg("file changed")
				data, err := os.ReadFile(path)
				if err != nil {
					log.Error().Err(err).Str("path", path).Msg("failed to read file")
					continue
				}
				onChange(data)
			case err := <-w.Error:
				log.Error().Err(err).Str("path", path).Msg("error on watching file")
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		if err := w.Start(pollInterval); err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to start watching file")
		}
	}()

	return w, nil
}

// Parse fills zero fields of the struct target points to from their
// `default` tags, recursing into struct pointers. A zero field without a
// default is an error unless it is a bool, pointer or slice.
func Parse(target interface{}) error {
	ref := reflect.Indirect(reflect.ValueOf(target))
	if ref.Kind() != reflect.Struct {
		return errors.Errorf("config target must be a struct pointer, got %T", target)
	}
	for i := 0; i < ref.Type().NumField(); i++ {
		structField := ref.Type().Field(i)
		fieldValue := ref.Field(i)
		if !structField.IsExported() {
			continue
		}

		if isSet(structField, &fieldValue) {
			if structField.Type.Kind() == reflect.Ptr && structField.Type.Elem().Kind() == reflect.Struct {
				if err := Parse(fieldValue.Interface()); err != nil {
					return err
				}
			}
			continue
		}

		if defaultTagValue, ok := structField.Tag.Lookup(tagDefault); ok {
			if err := setValue(structField, &fieldValue, defaultTagValue); err != nil {
				return errors.Wrapf(err, "invalid default for %s.%s", ref.Type().Name(), structField.Name)
			}
			continue
		}

		kind := structField.Type.Kind()
		if fieldValue.IsZero() && kind != reflect.Bool && kind != reflect.Ptr && kind != reflect.Slice {
			return fmt.Errorf("required configuration parameter is not specified - %s.%s", ref.Type().Name(), structField.Name)
		}

		if kind == reflect.Ptr {
			if err := setValue(structField, &fieldValue, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

func isSet(structField reflect.StructField, field *reflect.Value) bool {
	if structField.Type.Kind() == reflect.Ptr {
		return !field.IsNil()
	}
	if structField.Type.Kind() != reflect.Slice && !field.IsZero() {
		return true
	}
	return structField.Type.Kind() == reflect.Slice && field.Len() > 0
}

func setValue(structField reflect.StructField, field *reflect.Value, value string) error {
	switch structField.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if structField.Type == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(value, 10, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(value, 10, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		field.SetBool(strings.ToLower(value) == "true")
	case reflect.Ptr:
		if structField.Type.Elem().Kind() == reflect.Bool {
			b := strings.ToLower(value) == "true"
			field.Set(reflect.ValueOf(&b))
			return nil
		}
		if structField.Type.Elem().Kind() != reflect.Struct {
			return nil
		}
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return Parse(field.Interface())
	case reflect.Slice:
		if len(value) > 0 && structField.Type.Elem().Kind() == reflect.String {
			values := strings.Split(value, ",")
			sl := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, val := range values {
				sl.Index(i).SetString(strings.TrimSpace(val))
			}
			field.Set(sl)
		}
	}
	return nil
}
