package reconciler

import (
	"time"

	"github.com/cenkalti/backoff"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/heptiolabs/healthcheck"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/messages"
	"github.com/voxnotes/meetgo/internal/pkg/metrics"
	"github.com/voxnotes/meetgo/internal/pkg/mongodb"
	"github.com/voxnotes/meetgo/internal/pkg/rabbit"
	"github.com/voxnotes/meetgo/internal/pkg/summarizer"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
	"github.com/voxnotes/meetgo/internal/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "reconcilerService",
	Short: "Meet Notes Transcription Reconciler Service",
	Long:  `Polls remote transcription tasks and listens for transcriber callbacks`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8001, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8001)
	cmdapp.Config.SetDefault("reconciler.runEvery", time.Minute)
	cmdapp.Config.SetDefault("reconciler.maxTasks", MaxTasksPerRun)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting reconcilerService")
	var data ServiceData
	var err error
	data.health = healthcheck.NewHandler()

	data.TaskChecker, err = taskclient.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init transcriber client")

	data.Summarizer, err = summarizer.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init summarizer client")

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
	defer msgChannelProvider.Close()
	data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))

	err = msgChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		return rabbit.DeclareExchange(ch, messages.TopicStatusChange)
	})
	cmdapp.CheckOrPanic(err, "Can't init exchanges")
	data.Publisher = rabbit.NewPublisher(msgChannelProvider)

	mongoSessionProvider, err := mongodb.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	data.PendingProvider, err = mongodb.NewPendingProvider(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init pending provider")
	data.WorkSaver, err = mongodb.NewWorkSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init work saver")
	data.RecordingSaver, err = mongodb.NewRecordingSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init recording saver")
	data.NoteSaver, err = mongodb.NewNoteSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init note saver")
	data.LogSaver, err = mongodb.NewLogSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init log saver")

	data.MaxTasks = cmdapp.Config.GetInt("reconciler.maxTasks")
	data.bp = &expBackOffProvider{}
	data.Port = cmdapp.Config.GetInt("port")

	err = initMetrics(&data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	timerData := &timerServiceData{
		runEvery:     cmdapp.Config.GetDuration("reconciler.runEvery"),
		data:         &data,
		qChan:        utils.NewSignalChannel().C,
		workWaitChan: make(chan struct{}),
	}
	err = startCheckTimer(timerData)
	cmdapp.CheckOrPanic(err, "Can't start timer")

	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initMetrics(data *ServiceData) error {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reconciler_service",
			Name:      "request_durations_seconds",
			Help:      "Request latency distributions",
		}, nil)
	err := metrics.Register(dur)
	if err != nil {
		return err
	}
	data.metrics.callbackResponseDur = dur
	works := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconciler_service",
			Name:      "works_total",
			Help:      "Finished transcription works by result",
		}, []string{"result"})
	err = metrics.Register(works)
	if err != nil {
		return err
	}
	data.metrics.worksTotal = works
	return nil
}

type expBackOffProvider struct {
}

func (bp *expBackOffProvider) Get() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         backoff.DefaultMaxInterval,
		MaxElapsedTime:      45 * time.Second,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}
