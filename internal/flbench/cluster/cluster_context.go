package cluster

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	v1 "k8s.io/api/core/v1"
	networking "k8s.io/api/networking/v1"
	k8s_errors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// ClusterContext is the capability boundary between the orchestrator and the
// cluster. Every operation is scoped to the shared experiment namespace;
// pod-level operations are additionally scoped by run id label.
type ClusterContext interface {
	Namespace() string

	GetPodsForRun(ctx context.Context, runId string) ([]*v1.Pod, error)
	GetPodsForRunByApp(ctx context.Context, runId string, app string) ([]*v1.Pod, error)
	GetPodLogs(ctx context.Context, podName string) ([]byte, error)
	GetRecentEventsForRun(ctx context.Context, runId string) ([]*v1.Event, error)

	SubmitObjects(ctx context.Context, objects []runtime.Object) error
	DeleteRunResources(ctx context.Context, runId string) error

	ExecOnPod(ctx context.Context, podName string, command []string) error
}

type KubernetesClusterContext struct {
	namespace  string
	client     kubernetes.Interface
	restConfig *rest.Config
}

func NewClusterContext(namespace string, clientProvider KubernetesClientProvider) *KubernetesClusterContext {
	return &KubernetesClusterContext{
		namespace:  namespace,
		client:     clientProvider.Client(),
		restConfig: clientProvider.Config(),
	}
}

func (c *KubernetesClusterContext) Namespace() string {
	return c.namespace
}

func (c *KubernetesClusterContext) GetPodsForRun(ctx context.Context, runId string) ([]*v1.Pod, error) {
	return c.listPods(ctx, labels.Set{domain.RunIdLabel: runId})
}

func (c *KubernetesClusterContext) GetPodsForRunByApp(ctx context.Context, runId string, app string) ([]*v1.Pod, error) {
	return c.listPods(ctx, labels.Set{domain.RunIdLabel: runId, domain.AppLabel: app})
}

func (c *KubernetesClusterContext) listPods(ctx context.Context, selector labels.Set) ([]*v1.Pod, error) {
	podList, err := c.client.CoreV1().Pods(c.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector.AsSelector().String(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing pods with selector %s", selector)
	}
	pods := make([]*v1.Pod, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, &podList.Items[i])
	}
	return pods, nil
}

func (c *KubernetesClusterContext) GetPodLogs(ctx context.Context, podName string) ([]byte, error) {
	return c.client.CoreV1().Pods(c.namespace).GetLogs(podName, &v1.PodLogOptions{}).DoRaw(ctx)
}

// GetRecentEventsForRun returns namespace events whose involved object
// belongs to the run, identified by the run id embedded in resource names.
func (c *KubernetesClusterContext) GetRecentEventsForRun(ctx context.Context, runId string) ([]*v1.Event, error) {
	eventList, err := c.client.CoreV1().Events(c.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "listing namespace events")
	}
	events := make([]*v1.Event, 0, len(eventList.Items))
	for i := range eventList.Items {
		if strings.Contains(eventList.Items[i].InvolvedObject.Name, runId) {
			events = append(events, &eventList.Items[i])
		}
	}
	return events, nil
}

// SubmitObjects creates the decoded manifest objects in the experiment
// namespace. Only the kinds the harness knows how to tear down again are
// accepted.
func (c *KubernetesClusterContext) SubmitObjects(ctx context.Context, objects []runtime.Object) error {
	for _, object := range objects {
		if err := c.submitObject(ctx, object); err != nil {
			return err
		}
	}
	return nil
}

func (c *KubernetesClusterContext) submitObject(ctx context.Context, object runtime.Object) error {
	var err error
	switch typed := object.(type) {
	case *appsv1.Deployment:
		_, err = c.client.AppsV1().Deployments(c.namespace).Create(ctx, typed, metav1.CreateOptions{})
	case *batchv1.Job:
		_, err = c.client.BatchV1().Jobs(c.namespace).Create(ctx, typed, metav1.CreateOptions{})
	case *v1.Service:
		_, err = c.client.CoreV1().Services(c.namespace).Create(ctx, typed, metav1.CreateOptions{})
	case *v1.ConfigMap:
		_, err = c.client.CoreV1().ConfigMaps(c.namespace).Create(ctx, typed, metav1.CreateOptions{})
	case *v1.Secret:
		_, err = c.client.CoreV1().Secrets(c.namespace).Create(ctx, typed, metav1.CreateOptions{})
	case *networking.NetworkPolicy:
		_, err = c.client.NetworkingV1().NetworkPolicies(c.namespace).Create(ctx, typed, metav1.CreateOptions{})
	default:
		return errors.Errorf("unsupported manifest object kind %T", object)
	}
	if err != nil && !k8s_errors.IsAlreadyExists(err) {
		return errors.Wrapf(err, "creating %T", object)
	}
	return nil
}

// DeleteRunResources removes every resource labeled with the run id. The
// namespace itself is shared across runs and is left alone. Failures are
// collected so a single missing resource kind does not leave the rest
// behind.
func (c *KubernetesClusterContext) DeleteRunResources(ctx context.Context, runId string) error {
	selector := labels.Set{domain.RunIdLabel: runId}.AsSelector().String()
	listOptions := metav1.ListOptions{LabelSelector: selector}
	propagation := metav1.DeletePropagationBackground
	deleteOptions := metav1.DeleteOptions{PropagationPolicy: &propagation}

	var result *multierror.Error

	err := c.client.AppsV1().Deployments(c.namespace).DeleteCollection(ctx, deleteOptions, listOptions)
	result = multierror.Append(result, ignoreNotFound(err, "deployments"))

	err = c.client.BatchV1().Jobs(c.namespace).DeleteCollection(ctx, deleteOptions, listOptions)
	result = multierror.Append(result, ignoreNotFound(err, "jobs"))

	err = c.client.NetworkingV1().NetworkPolicies(c.namespace).DeleteCollection(ctx, deleteOptions, listOptions)
	result = multierror.Append(result, ignoreNotFound(err, "networkpolicies"))

	err = c.client.CoreV1().ConfigMaps(c.namespace).DeleteCollection(ctx, deleteOptions, listOptions)
	result = multierror.Append(result, ignoreNotFound(err, "configmaps"))

	err = c.client.CoreV1().Secrets(c.namespace).DeleteCollection(ctx, deleteOptions, listOptions)
	result = multierror.Append(result, ignoreNotFound(err, "secrets"))

	// Services do not support DeleteCollection.
	serviceList, err := c.client.CoreV1().Services(c.namespace).List(ctx, listOptions)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "listing services"))
	} else {
		for _, service := range serviceList.Items {
			err = c.client.CoreV1().Services(c.namespace).Delete(ctx, service.Name, deleteOptions)
			result = multierror.Append(result, ignoreNotFound(err, fmt.Sprintf("service %s", service.Name)))
		}
	}

	err = c.client.CoreV1().Pods(c.namespace).DeleteCollection(ctx, deleteOptions, listOptions)
	result = multierror.Append(result, ignoreNotFound(err, "pods"))

	return result.ErrorOrNil()
}

func ignoreNotFound(err error, what string) error {
	if err == nil || k8s_errors.IsNotFound(err) {
		return nil
	}
	return errors.Wrapf(err, "deleting %s", what)
}

// ExecOnPod runs a command inside the pod's first container, the same way
// kubectl exec does. Stderr is included in the returned error because tc
// reports its failures there.
func (c *KubernetesClusterContext) ExecOnPod(ctx context.Context, podName string, command []string) error {
	request := c.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(c.namespace).
		Name(podName).
		SubResource("exec").
		VersionedParams(&v1.PodExecOptions{
			Command: command,
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.restConfig, "POST", request.URL())
	if err != nil {
		return errors.Wrapf(err, "creating executor for pod %s", podName)
	}

	var stdout, stderr bytes.Buffer
	err = executor.Stream(remotecommand.StreamOptions{Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		return errors.Wrapf(err, "exec on pod %s: %s", podName, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() > 0 {
		log.WithField("pod", podName).Debugf("exec output: %s", strings.TrimSpace(stdout.String()))
	}
	return nil
}
