package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers every resource's routes. Auth entrypoints
// (register/login/sso-login) and the maintenance-status read are
// mounted unauthenticated; everything else sits behind authenticate
// then checkMaintenance, per spec.md §4.4.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/sso", s.ssoLogin)
	})

	r.Get("/maintenance", s.getMaintenance)

	r.Group(func(r chi.Router) {
		r.Use(authenticate(s.cfg, s.resolver))
		r.Use(checkMaintenance(s.maintenance))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.createUser)
			r.Get("/", s.listUsers)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", s.getUser)
				r.Patch("/", s.updateUserProfile)
				r.Patch("/role-status", s.updateUserRoleStatus)
				r.Delete("/", s.deleteUser)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", s.createGroup)
			r.Get("/", s.listGroups)
			r.Route("/{groupID}", func(r chi.Router) {
				r.Patch("/", s.updateGroup)
				r.Delete("/", s.deleteGroup)
				r.Patch("/status", s.toggleGroupStatus)
				r.Post("/members", s.addGroupMember)
				r.Delete("/members/{userID}", s.removeGroupMember)
				r.Post("/manager", s.assignGroupManager)
				r.Delete("/manager/{userID}", s.revokeGroupManager)
			})
		})

		r.Route("/conversation-groups", func(r chi.Router) {
			r.Post("/", s.createConversationGroup)
			r.Get("/", s.listConversationGroups)
			r.Delete("/{groupID}", s.deleteConversationGroup)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", s.createConversation)
			r.Get("/", s.listConversations)
			r.Route("/{conversationID}", func(r chi.Router) {
				r.Get("/", s.getConversation)
				r.Patch("/", s.updateConversation)
				r.Delete("/", s.deleteConversation)
				r.Post("/share", s.shareConversation)
				r.Delete("/share", s.unshareConversation)

				r.Get("/messages", s.listMessages)
				r.Post("/chat", s.streamChat)
			})
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/", s.uploadFile)
			r.Get("/", s.listFiles)
			r.Route("/{fileID}", func(r chi.Router) {
				r.Get("/", s.getFileInfo)
				r.Get("/download", s.downloadFile)
				r.Delete("/", s.deleteFile)
				r.Post("/promote", s.promoteFile)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.getSettings)
			r.Patch("/", s.updateSettings)
		})

		r.Post("/maintenance", s.toggleMaintenance)
	})
}
