package services

import (
	"context"
	"fmt"
	"log"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/lib/kubernetes"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/utils"
)

// KubernetesSubstrate runs managed database instances as single-replica
// StatefulSets, one namespace per project. Storage comes from the
// StatefulSet's volume claim template so data survives pod restarts.
type KubernetesSubstrate struct{}

// NewKubernetesSubstrate returns the cluster-backed substrate
func NewKubernetesSubstrate() *KubernetesSubstrate {
	return &KubernetesSubstrate{}
}

func resourceNamespace(r models.ManagedResource) string {
	return fmt.Sprintf("proj-%s", r.ProjectID)
}

func instanceName(r models.ManagedResource) string {
	return fmt.Sprintf("db-%s", r.Name)
}

// InstanceEndpoint returns the in-cluster address of the instance
func (s *KubernetesSubstrate) InstanceEndpoint(r models.ManagedResource) (string, int) {
	return fmt.Sprintf("%s.%s.svc.cluster.local", instanceName(r), resourceNamespace(r)), r.Port
}

// CreateInstance ensures the project namespace and applies the
// StatefulSet and Service for the instance. Re-applying an existing
// instance updates it in place.
func (s *KubernetesSubstrate) CreateInstance(ctx context.Context, r models.ManagedResource) error {
	client, err := kubernetes.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %v", err)
	}

	if err := s.ensureNamespace(ctx, client, resourceNamespace(r)); err != nil {
		return fmt.Errorf("failed to ensure namespace: %v", err)
	}

	if err := s.applyStatefulSet(ctx, client, statefulSetSpec(r)); err != nil {
		return fmt.Errorf("statefulset: %v", err)
	}
	if err := s.applyService(ctx, client, serviceSpec(r)); err != nil {
		return fmt.Errorf("service: %v", err)
	}

	log.Printf("Created instance %s (%s) in namespace %s", instanceName(r), r.Engine, resourceNamespace(r))
	return nil
}

// DeleteInstance removes the instance's workload, service and storage.
// An instance that is already gone yields a not-found error so callers
// can treat the teardown as idempotent.
func (s *KubernetesSubstrate) DeleteInstance(ctx context.Context, r models.ManagedResource) error {
	client, err := kubernetes.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %v", err)
	}

	namespace := resourceNamespace(r)
	name := instanceName(r)

	err = client.Clientset.AppsV1().StatefulSets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return apperrors.NotFound("instance_not_found", "backing instance does not exist")
	}
	if err != nil {
		return err
	}

	if err := client.Clientset.CoreV1().Services(namespace).Delete(ctx, name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return err
	}

	// Claims created through the volume claim template are not cascade
	// deleted with the StatefulSet.
	pvcName := fmt.Sprintf("data-%s-0", name)
	if err := client.Clientset.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, pvcName, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return err
	}

	log.Printf("Deleted instance %s from namespace %s", name, namespace)
	return nil
}

// InstanceStats reads live utilization from the metrics API. An absent
// or scaled-down instance reports running=false rather than an error;
// missing metrics (metrics-server lag) leave the usage fields zero.
func (s *KubernetesSubstrate) InstanceStats(ctx context.Context, r models.ManagedResource) (dto.InstanceStats, error) {
	client, err := kubernetes.NewClient()
	if err != nil {
		return dto.InstanceStats{}, fmt.Errorf("failed to create Kubernetes client: %v", err)
	}

	namespace := resourceNamespace(r)
	name := instanceName(r)

	set, err := client.Clientset.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return dto.InstanceStats{Running: false}, nil
	}
	if err != nil {
		return dto.InstanceStats{}, err
	}
	if set.Status.ReadyReplicas == 0 {
		return dto.InstanceStats{Running: false}, nil
	}

	// Plan was validated at provisioning time
	limits, _ := utils.GetPlanLimits(r.Plan)
	stats := dto.InstanceStats{
		Running:       true,
		MemoryLimitMB: float64(limits.MemoryMB),
	}

	if client.MetricsClient == nil {
		return stats, nil
	}

	podName := fmt.Sprintf("%s-0", name)
	metrics, err := client.MetricsClient.MetricsV1beta1().PodMetricses(namespace).Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		log.Printf("Warning: error getting pod metrics for %s: %v", podName, err)
		return stats, nil
	}

	for _, container := range metrics.Containers {
		cpuMillis := container.Usage.Cpu().MilliValue()
		if limits.CPUMillis > 0 {
			stats.CPUPercent += float64(cpuMillis) / float64(limits.CPUMillis) * 100.0
		}
		stats.MemoryUsedMB += utils.BytesToMB(container.Usage.Memory().Value())
	}
	return stats, nil
}

func (s *KubernetesSubstrate) ensureNamespace(ctx context.Context, client *kubernetes.Client, namespace string) error {
	exists, err := client.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = client.Clientset.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: namespace},
	}, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func (s *KubernetesSubstrate) applyStatefulSet(ctx context.Context, client *kubernetes.Client, set *appsv1.StatefulSet) error {
	_, err := client.Clientset.AppsV1().StatefulSets(set.Namespace).Create(ctx, set, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		existing, getErr := client.Clientset.AppsV1().StatefulSets(set.Namespace).Get(ctx, set.Name, metav1.GetOptions{})
		if getErr != nil {
			return getErr
		}
		existing.Spec.Template = set.Spec.Template
		_, err = client.Clientset.AppsV1().StatefulSets(set.Namespace).Update(ctx, existing, metav1.UpdateOptions{})
	}
	return err
}

func (s *KubernetesSubstrate) applyService(ctx context.Context, client *kubernetes.Client, svc *corev1.Service) error {
	_, err := client.Clientset.CoreV1().Services(svc.Namespace).Create(ctx, svc, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		// Service specs are immutable enough that we keep the existing one
		return nil
	}
	return err
}

func statefulSetSpec(r models.ManagedResource) *appsv1.StatefulSet {
	name := instanceName(r)
	labels := map[string]string{
		"app":                    name,
		"launchdeck.io/resource": r.ID,
		"launchdeck.io/engine":   string(r.Engine),
		"launchdeck.io/managed":  "true",
	}
	replicas := int32(1)
	cfg, _ := utils.GetEngineConfig(r.Engine)
	limits, _ := utils.GetPlanLimits(r.Plan)

	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: resourceNamespace(r),
			Labels:    labels,
		},
		Spec: appsv1.StatefulSetSpec{
			Replicas:    &replicas,
			ServiceName: name,
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{"app": name},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  "engine",
							Image: fmt.Sprintf("%s:%s", cfg.Image, r.Version),
							Args:  engineArgs(r),
							Ports: []corev1.ContainerPort{
								{
									ContainerPort: int32(r.Port),
									Protocol:      corev1.ProtocolTCP,
									Name:          "db",
								},
							},
							Resources: corev1.ResourceRequirements{
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    *resource.NewMilliQuantity(limits.CPUMillis, resource.DecimalSI),
									corev1.ResourceMemory: resource.MustParse(fmt.Sprintf("%dMi", limits.MemoryMB)),
								},
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("100m"),
									corev1.ResourceMemory: resource.MustParse("128Mi"),
								},
							},
							Env: engineEnvVars(r, cfg),
							VolumeMounts: []corev1.VolumeMount{
								{
									Name:      "data",
									MountPath: engineDataPath(r.Engine),
								},
							},
						},
					},
				},
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{
				{
					ObjectMeta: metav1.ObjectMeta{
						Name:   "data",
						Labels: labels,
					},
					Spec: corev1.PersistentVolumeClaimSpec{
						AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
						Resources: corev1.VolumeResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceStorage: resource.MustParse(fmt.Sprintf("%dMi", r.StorageLimitMB)),
							},
						},
					},
				},
			},
		},
	}
}

func serviceSpec(r models.ManagedResource) *corev1.Service {
	name := instanceName(r)
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: resourceNamespace(r),
			Labels:    map[string]string{"app": name},
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: map[string]string{"app": name},
			Ports: []corev1.ServicePort{
				{
					Port:       int32(r.Port),
					TargetPort: intstr.FromInt(r.Port),
					Protocol:   corev1.ProtocolTCP,
					Name:       "db",
				},
			},
		},
	}
}

// engineEnvVars maps the generated credentials onto the image's
// bootstrap variables. Engines without a user variable (redis) only
// receive the password.
func engineEnvVars(r models.ManagedResource, cfg utils.EngineConfig) []corev1.EnvVar {
	var env []corev1.EnvVar
	if cfg.UserEnvVar != "" {
		env = append(env, corev1.EnvVar{Name: cfg.UserEnvVar, Value: r.Username})
	}
	if cfg.PasswordEnvVar != "" {
		env = append(env, corev1.EnvVar{Name: cfg.PasswordEnvVar, Value: r.Password})
	}
	if cfg.DatabaseEnvVar != "" {
		env = append(env, corev1.EnvVar{Name: cfg.DatabaseEnvVar, Value: r.Name})
	}
	return env
}

// engineArgs enforces plan connection limits where the engine supports
// a startup flag for it. Other engines use their image defaults.
func engineArgs(r models.ManagedResource) []string {
	switch r.Engine {
	case models.EnginePostgreSQL:
		return []string{"-c", fmt.Sprintf("max_connections=%d", r.ConnLimit)}
	case models.EngineRedis:
		return []string{"--requirepass", r.Password, "--maxclients", fmt.Sprintf("%d", r.ConnLimit)}
	default:
		return nil
	}
}

func engineDataPath(engine models.ResourceEngine) string {
	paths := map[models.ResourceEngine]string{
		models.EnginePostgreSQL: "/var/lib/postgresql/data",
		models.EngineMySQL:      "/var/lib/mysql",
		models.EngineRedis:      "/data",
		models.EngineMongoDB:    "/data/db",
	}
	if path, ok := paths[engine]; ok {
		return path
	}
	return "/data"
}
