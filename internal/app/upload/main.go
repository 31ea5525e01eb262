package upload

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/heptiolabs/healthcheck"

	"github.com/voxnotes/meetgo/internal/pkg/audio"
	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/messages"
	"github.com/voxnotes/meetgo/internal/pkg/metrics"
	"github.com/voxnotes/meetgo/internal/pkg/mongodb"
	"github.com/voxnotes/meetgo/internal/pkg/rabbit"
	"github.com/voxnotes/meetgo/internal/pkg/retrier"
	"github.com/voxnotes/meetgo/internal/pkg/storage"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
	"github.com/voxnotes/meetgo/internal/pkg/worker"
)

var rootCmd = &cobra.Command{
	Use:   "uploadService",
	Short: "Meet Notes Upload Audio Service",
	Long:  `HTTP server to listen and upload meeting recordings for transcription`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8080)
	cmdapp.Config.SetDefault("upload.signedURLTTL", time.Hour)
	cmdapp.Config.SetDefault("upload.highPriorityLimit", 10*time.Minute)
	cmdapp.Config.SetDefault("upload.submitWorkers", 4)
	cmdapp.Config.SetDefault("worker.poolSize", 2)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting uploadService")
	var data ServiceData
	var err error
	data.health = healthcheck.NewHandler()

	fileStorage, err := storage.NewMinioStorage()
	cmdapp.CheckOrPanic(err, "Can't init file storage")
	data.Storage = fileStorage
	data.health.AddLivenessCheck("storage", healthcheck.Async(fileStorage.Healthy, 10*time.Second))

	pool := worker.NewPool(cmdapp.Config.GetInt("worker.poolSize"))
	defer pool.Close()
	data.Compressor, err = audio.NewCompressor(pool)
	cmdapp.CheckOrPanic(err, "Can't init compressor")

	data.TaskStarter, err = taskclient.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init transcriber client")

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
	defer msgChannelProvider.Close()
	data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))

	err = initExchanges(msgChannelProvider)
	cmdapp.CheckOrPanic(err, "Can't init exchanges")
	data.Publisher = rabbit.NewPublisher(msgChannelProvider)

	mongoSessionProvider, err := mongodb.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	data.RecordingSaver, err = mongodb.NewRecordingSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init recording saver")
	data.NoteSaver, err = mongodb.NewNoteSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init note saver")
	data.WorkSaver, err = mongodb.NewWorkSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init work saver")
	data.LogSaver, err = mongodb.NewLogSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init log saver")

	data.RetryPolicy = retrier.NewPolicy()
	data.SignedURLTTL = cmdapp.Config.GetDuration("upload.signedURLTTL")
	data.HighPriorityLimit = cmdapp.Config.GetDuration("upload.highPriorityLimit")
	data.SubmitWorkers = cmdapp.Config.GetInt("upload.submitWorkers")
	data.Port = cmdapp.Config.GetInt("port")

	err = initMetrics(&data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initExchanges(prv *rabbit.ChannelProvider) error {
	cmdapp.Log.Info("Initializing exchanges")
	return prv.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		return rabbit.DeclareExchange(ch, messages.TopicStatusChange)
	})
}

func initMetrics(data *ServiceData) error {
	namespace := "upload_service"
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_durations_seconds",
			Help:      "Request latency distributions",
		}, nil)
	err := metrics.Register(dur)
	if err != nil {
		return err
	}
	data.metrics.uploadResponseDur = dur
	size := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_size_bytes",
			Help:      "Request size distributions",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		}, nil)
	err = metrics.Register(size)
	if err != nil {
		return err
	}
	data.metrics.uploadRequestSize = size
	return nil
}
