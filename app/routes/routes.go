package routes

import (
	"net/http"

	"quill/app/controllers"
	"quill/app/middleware"
	"quill/app/repositories"
	"quill/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Options tunes the HTTP stack around the API.
type Options struct {
	Logger       zerolog.Logger
	MaxBodyBytes int64
	CORSOrigins  []string
	BcryptCost   int
}

// SetupRoutes defines the application's routes on top of store and returns
// the complete handler, middleware included.
func SetupRoutes(store *repositories.Store, opts Options) http.Handler {
	postService := services.NewPostService(store.Posts)
	commentService := services.NewCommentService(store.Comments, store.Posts)
	userService := services.NewUserService(store.Users, opts.BcryptCost)

	postController := controllers.NewPostController(postService)
	commentController := controllers.NewCommentController(commentService)
	userController := controllers.NewUserController(userService)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controllers.SendMessage(w, http.StatusNotFound, controllers.MsgNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controllers.SendMessage(w, http.StatusMethodNotAllowed, controllers.MsgMethodNotAllowed)
	})

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.MaxBody(opts.MaxBodyBytes))
	api.Use(middleware.Authenticate(userService))

	api.HandleFunc("/health", controllers.Health(store)).Methods("GET")

	// Account endpoints
	api.HandleFunc("/register", userController.Register).Methods("POST")
	api.HandleFunc("/login", userController.Login).Methods("POST")
	api.HandleFunc("/logout", userController.Logout).Methods("POST")
	api.HandleFunc("/user", userController.Show).Methods("GET")
	api.HandleFunc("/user", userController.Delete).Methods("DELETE")

	// Posts API endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}", postController.Update).Methods("PUT")
	posts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	posts.HandleFunc("/{id:[0-9]+}/publish", postController.Publish).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}/slug", postController.RegenerateSlug).Methods("POST")

	// Comments API endpoints
	posts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	posts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	api.HandleFunc("/comments/{id:[0-9]+}/approve", commentController.Approve).Methods("POST")
	api.HandleFunc("/comments/{id:[0-9]+}", commentController.Delete).Methods("DELETE")

	// Router level middleware only runs for matched routes, so the global
	// chain wraps the router itself.
	var handler http.Handler = router
	handler = middleware.CORS(opts.CORSOrigins)(handler)
	handler = middleware.Recoverer(handler)
	handler = middleware.Logger(opts.Logger)(handler)
	handler = middleware.RequestID(handler)
	return handler
}
