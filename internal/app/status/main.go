package status

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/heptiolabs/healthcheck"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/messages"
	"github.com/voxnotes/meetgo/internal/pkg/mongodb"
	"github.com/voxnotes/meetgo/internal/pkg/rabbit"
)

var appName = "Meet Notes Status Provider Service"

var rootCmd = &cobra.Command{
	Use:   "statusProviderService",
	Short: appName,
	Long:  `HTTP server to provide note status and push updates over websocket`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8002, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8002)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	var data ServiceData
	data.health = healthcheck.NewHandler()

	mongoSessionProvider, err := mongodb.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	noteProvider, err := mongodb.NewNoteProvider(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init note provider")
	data.StatusProvider, err = NewNoteStatusProvider(noteProvider)
	cmdapp.CheckOrPanic(err, "Can't init status provider")

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
	defer msgChannelProvider.Close()
	data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))

	data.EventChannelFunc = newEventChannelFunc(msgChannelProvider)
	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

// newEventChannelFunc binds an anonymous queue to the status exchange.
// Invoked on every reconnect, the old queue dies with the connection
func newEventChannelFunc(prv *rabbit.ChannelProvider) eventChannelFunc {
	return func() (<-chan amqp.Delivery, error) {
		var res <-chan amqp.Delivery
		err := prv.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
			if err := rabbit.DeclareExchange(ch, messages.TopicStatusChange); err != nil {
				return err
			}
			q, err := rabbit.DeclareBindQueue(ch, messages.TopicStatusChange)
			if err != nil {
				return err
			}
			res, err = rabbit.Consume(ch, q.Name)
			return err
		})
		return res, err
	}
}
