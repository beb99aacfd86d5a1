package main

import (
	"context"
	log_ "log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kostiamol/offsetms/api"
	"github.com/kostiamol/offsetms/calib"
	"github.com/kostiamol/offsetms/cfg"
	"github.com/kostiamol/offsetms/device"
	"github.com/kostiamol/offsetms/log"
	"github.com/kostiamol/offsetms/metric"
	"github.com/kostiamol/offsetms/store"
	"github.com/kostiamol/offsetms/svc"
)

func init() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log_.Fatalf("func Load: %s", err)
	}
}

func main() {
	config, err := cfg.NewConfig()
	if err != nil {
		log_.Fatalf("func NewConfig: %s", err)
	}

	logger := log.New(config.Service.AppID, config.Service.LogLevel)
	mtrc := metric.New(config.Service.AppID)

	rooms, err := cfg.LoadRooms(config.Service.RoomsFile)
	if err != nil {
		logger.Fatalf("func LoadRooms: %s", err)
	}
	logger.With("event", log.EventRoomsLoaded).Infof("rooms: %d", len(rooms))

	redis := store.NewRedis(&store.Cfg{
		Addr:          config.Store.Addr,
		Password:      config.Store.Password,
		KeyPrefix:     config.Store.KeyPrefix,
		Log:           logger,
		RetryTimeout:  config.Service.RetryTimeout,
		RetryAttempts: config.Service.RetryAttempts,
	})
	defer func() { _ = redis.Close() }()

	if _, err := redis.Check(); err != nil {
		logger.With("event", log.EventStoreInit).Fatalf("func Check: %s", err)
	}

	dev, err := device.Connect(&device.Cfg{
		URL:            config.NATS.URL(),
		Name:           config.Service.AppID,
		SubjectPrefix:  config.NATS.SubjectPrefix,
		RequestTimeout: config.NATS.RequestTimeout,
		Log:            logger,
		RetryTimeout:   config.Service.RetryTimeout,
		RetryAttempts:  config.Service.RetryAttempts,
	})
	if err != nil {
		logger.Fatalf("func Connect: %s", err)
	}
	defer dev.Close()

	ctrl := svc.NewCtrl()

	runner := calib.NewRunner(&calib.RunnerCfg{
		Log:    logger,
		Metric: mtrc,
		Reader: redis,
		Writer: dev,
	})

	sched := svc.NewScheduler(&svc.SchedulerCfg{
		Log:      logger,
		Ctrl:     ctrl,
		Metric:   mtrc,
		Runner:   runner,
		Rooms:    rooms,
		Schedule: config.Service.Schedule,
	})

	a, err := api.New(&api.Cfg{
		Log:             logger,
		Ctrl:            ctrl,
		Metric:          mtrc,
		PortREST:        config.Service.PortREST,
		Checker:         redis,
		Scheduler:       sched,
		Device:          dev,
		PublicKey:       config.Token.PublicKey,
		ShutdownTimeout: config.Service.TerminationTimeout,
	})
	if err != nil {
		logger.Fatalf("func New: %s", err)
	}
	go a.Run()

	go func() {
		if err := sched.Start(context.Background()); err != nil {
			logger.Errorf("func Start: %s", err)
			ctrl.Terminate()
		}
	}()

	ctrl.Wait(config.Service.TerminationTimeout)
	sched.Stop()

	logger.With("event", log.EventMSShutdown).Infof("%s is down", config.Service.AppID)
	_ = logger.Flush()
}
