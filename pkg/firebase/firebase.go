package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and the clients built from it
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Firestore   *firestore.Client
}

// InitFirebase initializes the Firebase application, its auth client and,
// when withFirestore is set, a Firestore client
func InitFirebase(ctx context.Context, credentialsPath string, withFirestore bool, log *zap.Logger) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	app := &App{FirebaseApp: firebaseApp, AuthClient: authClient}
	if withFirestore {
		app.Firestore, err = firebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
	}

	log.Info("Firebase app initialized", zap.Bool("firestore", withFirestore))
	return app, nil
}

// Close releases the Firestore client, if any
func (a *App) Close() error {
	if a.Firestore == nil {
		return nil
	}
	return a.Firestore.Close()
}
